package models

import (
	"net/url"
	"time"
)

// Check describes one monitored task and its last known ping state.
//
// The zero value is a valid, empty check. Fields are plain data: nothing on
// this type validates them or keeps them consistent with each other, and
// values are not safe for concurrent mutation.
type Check struct {
	Name string
	Tag  string

	// Timeout and Grace are in seconds.
	Timeout uint32
	Grace   uint32

	PingURL   *url.URL
	PingCount uint32

	// nil when absent.
	LastPingDate *time.Time
	NextPingDate *time.Time
}

// NewCheck assigns every field as given.
func NewCheck(
	name, tag string,
	timeout, grace uint32,
	pingURL *url.URL,
	pingCount uint32,
	lastPingDate, nextPingDate *time.Time,
) *Check {
	return &Check{
		Name:         name,
		Tag:          tag,
		Timeout:      timeout,
		Grace:        grace,
		PingURL:      pingURL,
		PingCount:    pingCount,
		LastPingDate: lastPingDate,
		NextPingDate: nextPingDate,
	}
}
