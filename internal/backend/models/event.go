package models

import "time"

type CheckEventType string

const (
	CheckEventCreated CheckEventType = "check.created"
	CheckEventUpdated CheckEventType = "check.updated"
	CheckEventDeleted CheckEventType = "check.deleted"
)

type CheckEvent struct {
	Type      CheckEventType `json:"type"`
	CheckID   string         `json:"check_id"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewCheckEvent(eventType CheckEventType, checkID string) CheckEvent {
	return CheckEvent{
		Type:      eventType,
		CheckID:   checkID,
		Timestamp: time.Now().UTC(),
	}
}
