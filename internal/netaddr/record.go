// Package netaddr enumerates the machine's network interfaces and produces
// the filtered, tagged address set the change detector compares.
package netaddr

import "fmt"

// Address families.
const (
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

// IPv6 secondary tags. IPv4 records carry an empty tag.
const (
	TagStable    = "stable"
	TagTemporary = "temporary"
)

// Record is one observed address.
type Record struct {
	Interface string `json:"interface"`
	Family    string `json:"family"`
	Tag       string `json:"tag"`
	Address   string `json:"address"`
}

// String renders the record for console and notification output.
func (r Record) String() string {
	if r.Tag != "" {
		return fmt.Sprintf("%s %s (%s): %s", r.Interface, r.Family, r.Tag, r.Address)
	}
	return fmt.Sprintf("%s %s: %s", r.Interface, r.Family, r.Address)
}
