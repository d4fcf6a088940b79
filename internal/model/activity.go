package model

import "time"

// Activity outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Activity is one admin mutation recorded in the local audit log.
type Activity struct {
	ID        string    `json:"id"`
	Admin     string    `json:"admin"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Activity) Key() string { return a.ID }
