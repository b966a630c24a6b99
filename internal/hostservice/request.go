package hostservice

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/hostsub/internal/apperr"
	"github.com/starford/hostsub/internal/netaddr"
)

// SetRequest maps Hostname to Addresses, replacing any previous mapping.
type SetRequest struct {
	Hostname  string   `json:"hostname"`
	Addresses []string `json:"addresses"`
}

var (
	isHostname = validation.By(func(v any) error {
		s, _ := v.(string)
		if s != "" && !netaddr.IsValidHostname(s) {
			return errors.New("must be a valid RFC 1123 hostname")
		}
		return nil
	})
	isAddress = validation.By(func(v any) error {
		s, _ := v.(string)
		if !netaddr.IsValidAddress(s) {
			return errors.New("must be a valid IPv4 or IPv6 address")
		}
		return nil
	})
)

// Validate checks the hostname and every address.
func (r SetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Hostname, validation.Required, isHostname),
		validation.Field(&r.Addresses, validation.Required, validation.Each(isAddress)),
	)
}

// HostLine is a parsed "<ip> <host> [alias...]" input line.
type HostLine struct {
	Address  string
	Hostname string
	Aliases  []string
}

// Request returns the upsert for the line. Aliases are validated but not
// written; the primary hostname is the mapping key.
func (h HostLine) Request() SetRequest {
	return SetRequest{Hostname: h.Hostname, Addresses: []string{h.Address}}
}

// ParseHostLine parses and validates a single mapping line.
func ParseHostLine(line string) (HostLine, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return HostLine{}, fmt.Errorf("%w: expected \"<ip> <hostname> [alias...]\"", apperr.ErrInvalid)
	}
	h := HostLine{Address: fields[0], Hostname: fields[1], Aliases: fields[2:]}
	if !netaddr.IsValidAddress(h.Address) {
		return HostLine{}, fmt.Errorf("%w: invalid address %q", apperr.ErrInvalid, h.Address)
	}
	for _, name := range fields[1:] {
		if !netaddr.IsValidHostname(name) {
			return HostLine{}, fmt.Errorf("%w: invalid hostname %q", apperr.ErrInvalid, name)
		}
	}
	return h, nil
}
