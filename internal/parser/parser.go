// Package parser turns hosts-file text into structured entries.
package parser

import (
	"bufio"
	"strings"

	"github.com/starford/hostsub/internal/models"
)

// ParseEntries returns the active mappings in content. Comment and blank
// lines are skipped; a trailing "# ..." on a mapping line becomes Comment.
// Lines with fewer than two fields are ignored.
func ParseEntries(content string) []models.HostEntry {
	var out []models.HostEntry
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		e, ok := ParseLine(sc.Text())
		if !ok {
			continue
		}
		e.Line = n
		out = append(out, e)
	}
	return out
}

// ParseLine parses one "<address> <hostname> [alias...] [# comment]" line.
func ParseLine(line string) (models.HostEntry, bool) {
	var comment string
	if i := strings.IndexByte(line, '#'); i >= 0 {
		comment = strings.TrimSpace(line[i+1:])
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return models.HostEntry{}, false
	}
	e := models.HostEntry{
		Address:  fields[0],
		Hostname: fields[1],
		Comment:  comment,
	}
	if len(fields) > 2 {
		e.Aliases = fields[2:]
	}
	return e, true
}

// Lookup returns the entries whose hostname or aliases equal name exactly.
func Lookup(entries []models.HostEntry, name string) []models.HostEntry {
	var out []models.HostEntry
	for _, e := range entries {
		for _, n := range e.Names() {
			if n == name {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
