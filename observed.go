package main

import "time"

type observation struct {
	payloadID string
	firstSeen time.Time
	timesSeen int
}

// tracks which queue messages have already been printed during this run.
// Nothing is deleted from the queue, so a message can come back once its
// visibility timeout expires. Only the drain loop touches it, so no locking.
type ObservedMessages struct {
	now      func() time.Time
	observed map[string]observation
}

func NewObservedMessages() *ObservedMessages {
	return &ObservedMessages{
		now:      time.Now,
		observed: make(map[string]observation),
	}
}

func (o *ObservedMessages) IsObserved(messageID string) bool {
	_, exists := o.observed[messageID]
	return exists
}

// MarkObserved records a sighting of messageID and returns the updated record.
func (o *ObservedMessages) MarkObserved(messageID, payloadID string) observation {
	obs, exists := o.observed[messageID]
	if !exists {
		obs = observation{
			payloadID: payloadID,
			firstSeen: o.now(),
		}
	}
	obs.timesSeen++
	o.observed[messageID] = obs
	return obs
}

func (o *ObservedMessages) Len() int {
	return len(o.observed)
}
