package api

import (
	"github.com/starford/hostsub/internal/models"
	"github.com/starford/hostsub/internal/monitor"
	"github.com/starford/hostsub/internal/netaddr"
)

// CreateHostRequest is the body of POST /hosts. Either Line or
// Hostname+Addresses must be set.
type CreateHostRequest struct {
	Line      string   `json:"line,omitempty" example:"10.0.0.5 api.local api"`
	Hostname  string   `json:"hostname,omitempty" example:"api.local"`
	Addresses []string `json:"addresses,omitempty" example:"10.0.0.5"`
}

// SetHostRequest is the body of PUT /hosts/{name}.
type SetHostRequest struct {
	Addresses []string `json:"addresses" example:"10.0.0.5,fd00::5" validate:"required"`
}

// MutationResponse reports how a hosts edit was applied.
type MutationResponse struct {
	Hostname string `json:"hostname" example:"api.local" validate:"required"`
	Elevated bool   `json:"elevated"`
	Replaced bool   `json:"replaced"`
}

// HostListResponse wraps the parsed hosts table.
type HostListResponse struct {
	Path     string             `json:"path" example:"/etc/hosts" validate:"required"`
	Elevated bool               `json:"elevated"`
	Entries  []models.HostEntry `json:"entries" validate:"required"`
}

// RawHostsResponse is the hosts file with comment lines removed.
type RawHostsResponse struct {
	Path    string `json:"path" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// AddressListResponse wraps the classified addresses.
type AddressListResponse struct {
	Addresses []netaddr.Record `json:"addresses" validate:"required"`
}

// DiffResponse is monitor.Diff for the API.
type DiffResponse = monitor.Diff

// MutationListResponse wraps paginated audit rows.
type MutationListResponse struct {
	Mutations []models.Mutation `json:"mutations" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// NotificationListResponse wraps paginated notification rows.
type NotificationListResponse struct {
	Notifications []models.NotificationLog `json:"notifications" validate:"required"`
	Total         int                      `json:"total" validate:"required"`
}
