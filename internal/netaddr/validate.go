package netaddr

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ipv6Re = regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$|` +
		`^::([0-9a-fA-F]{1,4}:){0,6}[0-9a-fA-F]{1,4}$|` +
		`^[0-9a-fA-F]{1,4}::([0-9a-fA-F]{1,4}:){0,5}[0-9a-fA-F]{1,4}$|` +
		`^([0-9a-fA-F]{1,4}:){2}:([0-9a-fA-F]{1,4}:){0,4}[0-9a-fA-F]{1,4}$|` +
		`^([0-9a-fA-F]{1,4}:){3}:([0-9a-fA-F]{1,4}:){0,3}[0-9a-fA-F]{1,4}$|` +
		`^([0-9a-fA-F]{1,4}:){4}:([0-9a-fA-F]{1,4}:){0,2}[0-9a-fA-F]{1,4}$|` +
		`^([0-9a-fA-F]{1,4}:){5}:([0-9a-fA-F]{1,4}:){0,1}[0-9a-fA-F]{1,4}$|` +
		`^([0-9a-fA-F]{1,4}:){6}:[0-9a-fA-F]{1,4}$`)

	hostnameRe = regexp.MustCompile(`^([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])(\.([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]{0,61}[a-zA-Z0-9]))*$`)
)

// IsValidAddress routes to IPv6 validation when s contains ':' and to IPv4
// validation when it contains '.'.
func IsValidAddress(s string) bool {
	switch {
	case strings.Contains(s, ":"):
		return IsValidIPv6(s)
	case strings.Contains(s, "."):
		return IsValidIPv4(s)
	}
	return false
}

// IsValidIPv4 accepts exactly four decimal parts in 0..255.
func IsValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 || p[0] == '+' || p[0] == '-' {
			return false
		}
	}
	return true
}

// IsValidIPv6 accepts full and "::"-compressed forms. Embedded IPv4 tails are rejected.
func IsValidIPv6(s string) bool {
	return s == "::" || ipv6Re.MatchString(s)
}

// IsValidHostname accepts RFC 1123 names up to 253 characters.
func IsValidHostname(s string) bool {
	return s != "" && len(s) <= 253 && hostnameRe.MatchString(s)
}
