// Package models defines the domain types shared by the service and its
// transports.
package models

import "time"

// HostEntry is one active mapping line from the hosts file.
type HostEntry struct {
	Line     int      `json:"line"`
	Address  string   `json:"address"`
	Hostname string   `json:"hostname"`
	Aliases  []string `json:"aliases,omitempty"`
	Comment  string   `json:"comment,omitempty"`
}

// Names returns the primary hostname followed by the aliases.
func (e HostEntry) Names() []string {
	return append([]string{e.Hostname}, e.Aliases...)
}

// Mutation kinds recorded in history.
const (
	MutationSet    = "set"
	MutationRemove = "remove"
)

// Mutation is an audited hosts-file change.
type Mutation struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Hostname  string    `json:"hostname"`
	Addresses []string  `json:"addresses,omitempty"`
	Elevated  bool      `json:"elevated"`
	Matched   bool      `json:"matched"`
	At        time.Time `json:"at"`
}

// NotificationLog is a delivered address-change notification.
type NotificationLog struct {
	ID      int64     `json:"id"`
	Device  string    `json:"device"`
	Count   int       `json:"count"`
	Records string    `json:"records"`
	At      time.Time `json:"at"`
}
