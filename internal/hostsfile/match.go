package hostsfile

import "strings"

// MatchesHost reports whether line is an active mapping that mentions name.
//
// The test is a plain substring match, not a field match: removing "host1"
// also drops a line for "host10", and a name that appears inside an alias list
// removes the whole line. The elevated scripts in package privilege apply the
// same rule so both paths edit the file identically.
func MatchesHost(line, name string) bool {
	if isComment(line) || strings.TrimSpace(line) == "" {
		return false
	}
	return strings.Contains(line, name)
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}
