package privilege

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/hostsub/internal/apperr"
)

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		ok   bool
	}{
		{"upsert", Operation{Kind: KindUpsert, Hostname: "api.local", Addresses: []string{"10.0.0.1", "2001:db8::1"}}, true},
		{"remove", Operation{Kind: KindRemove, Hostname: "api.local"}, true},
		{"upsert without addresses", Operation{Kind: KindUpsert, Hostname: "api.local"}, false},
		{"unknown kind", Operation{Kind: "rename", Hostname: "api.local"}, false},
		{"quote in hostname", Operation{Kind: KindRemove, Hostname: "a'; rm -rf /"}, false},
		{"dollar in address", Operation{Kind: KindUpsert, Hostname: "a", Addresses: []string{"$(id)"}}, false},
		{"empty hostname", Operation{Kind: KindRemove}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, apperr.ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestPowershellScript(t *testing.T) {
	op := Operation{Kind: KindUpsert, Hostname: "api.local", Addresses: []string{"10.0.0.1", "fd00::1"}}
	s := powershellScript(`C:\Windows\System32\drivers\etc\hosts`, op)

	for _, want := range []string{
		`$hosts = 'C:\Windows\System32\drivers\etc\hosts'`,
		`$name = 'api.local'`,
		`$t.StartsWith('#')`,
		`(-not $_.Contains($name))`,
		"$kept += '10.0.0.1' + \"`t\" + $name",
		"$kept += 'fd00::1' + \"`t\" + $name",
		`[System.IO.File]::Replace($tmp, $hosts, $hosts + '.bak')`,
		"exit 1",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("script missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "$kept.Count -eq $lines.Count") {
		t.Error("upsert script must not short-circuit on no match")
	}

	rm := powershellScript(`C:\hosts`, Operation{Kind: KindRemove, Hostname: "api.local"})
	if !strings.Contains(rm, "if ($kept.Count -eq $lines.Count) { exit 0 }") {
		t.Errorf("remove script should exit early when nothing matched:\n%s", rm)
	}
	if strings.Contains(rm, "$kept +=") {
		t.Error("remove script must not append lines")
	}
}

func TestQuoting(t *testing.T) {
	if got := shellQuote("it's"); got != `'it'\''s'` {
		t.Errorf("shellQuote = %s", got)
	}
	if got := psQuote("it's"); got != `'it''s'` {
		t.Errorf("psQuote = %s", got)
	}
	if got := appleScriptString(`/tmp/a "b"\c`); got != `"/tmp/a \"b\"\\c"` {
		t.Errorf("appleScriptString = %s", got)
	}
}
