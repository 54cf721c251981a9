package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// writes decoded payloads to the operator's terminal
type PayloadPrinter struct {
	out         io.Writer
	headerStyle lipgloss.Style
	noteStyle   lipgloss.Style
}

// styles are bound to out, so colour is dropped when out is not a terminal
func NewPayloadPrinter(out io.Writer) *PayloadPrinter {
	r := lipgloss.NewRenderer(out)

	return &PayloadPrinter{
		out:         out,
		headerStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		noteStyle:   r.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

func (p *PayloadPrinter) Print(payload DecodedPayload, redelivered bool) error {
	header := p.headerStyle.Render("Message ID: " + payload.MessageID)

	note := "id: " + payload.ID
	if payload.EventType != "" {
		note += "  eventType: " + payload.EventType
	}
	if redelivered {
		note += "  (seen earlier in this run)"
	}

	if _, err := fmt.Fprintf(p.out, "%s\n%s\n%s\n", header, p.noteStyle.Render(note), payload.Content); err != nil {
		return fmt.Errorf("failed to write payload for message %s: %w", payload.MessageID, err)
	}
	return nil
}
