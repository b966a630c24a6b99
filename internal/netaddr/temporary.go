package netaddr

import "strings"

// IsTemporaryIPv6 guesses whether an address is a privacy (temporary) address.
//
// This is an approximation, not a protocol fact. The input is the expanded
// eight-group form. Addresses whose text does not start with '2' are called
// stable. Otherwise, when the last two groups are both four hex
// digits and the second digit of the second-to-last group is neither 'e' nor
// 'f' (the EUI-64 ff:fe marker region), the address is called temporary.
// Swap this function out if the platform can report the real flag.
func IsTemporaryIPv6(expanded string) bool {
	if !strings.HasPrefix(expanded, "2") {
		return false
	}
	parts := strings.Split(expanded, ":")
	if len(parts) < 8 {
		return false
	}
	a, b := parts[len(parts)-2], parts[len(parts)-1]
	if !isHex4(a) || !isHex4(b) {
		return false
	}
	return a[1] != 'e' && a[1] != 'f'
}

func isHex4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
