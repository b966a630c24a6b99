package privilege

import (
	"strings"
)

// posixScript renders a /bin/sh program that performs op against hostsPath
// with the same line filter as hostsfile.MatchesHost: comment and blank lines
// always survive, any other line containing the hostname is dropped.
func posixScript(hostsPath string, op Operation) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\nset -eu\n")
	b.WriteString("hosts=" + shellQuote(hostsPath) + "\n")
	b.WriteString("name=" + shellQuote(op.Hostname) + "\n")
	b.WriteString(`tmp=$(mktemp "$hosts.XXXXXX")` + "\n")
	b.WriteString(`trap 'rm -f "$tmp"' EXIT` + "\n")
	// Carry the original mode and owner over to the replacement.
	b.WriteString(`cp -p "$hosts" "$tmp"` + "\n")
	b.WriteString(`awk -v h="$name" '{ t = $0; sub(/^[ \t\r\f]+/, "", t); if (t == "" || substr(t, 1, 1) == "#" || index($0, h) == 0) print }' "$hosts" > "$tmp"` + "\n")

	removed := `grep -F -- "$name" "$hosts" | grep -v -E '^[[:space:]]*(#|$)' > /dev/null`
	if op.Kind == KindRemove {
		// Nothing matched: leave the file and its backup alone.
		b.WriteString("if ! " + removed + "; then exit 0; fi\n")
	}
	for _, a := range op.Addresses {
		b.WriteString(`printf '%s\t%s\n' ` + shellQuote(a) + ` "$name" >> "$tmp"` + "\n")
	}
	b.WriteString(`cp "$hosts" "$hosts.bak"` + "\n")
	b.WriteString(`mv -f "$tmp" "$hosts"` + "\n")
	b.WriteString("trap - EXIT\n")
	return b.String()
}

// powershellScript renders the Windows equivalent of posixScript. The backup
// and the swap happen in one File.Replace call, which keeps the original ACL.
func powershellScript(hostsPath string, op Operation) string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	b.WriteString("$hosts = " + psQuote(hostsPath) + "\n")
	b.WriteString("$name = " + psQuote(op.Hostname) + "\n")
	b.WriteString("$tmp = $null\n")
	b.WriteString("try {\n")
	b.WriteString("  $lines = @(Get-Content -LiteralPath $hosts)\n")
	b.WriteString("  $kept = @($lines | Where-Object { $t = $_.Trim(); ($t -eq '') -or $t.StartsWith('#') -or (-not $_.Contains($name)) })\n")
	if op.Kind == KindRemove {
		b.WriteString("  if ($kept.Count -eq $lines.Count) { exit 0 }\n")
	}
	for _, a := range op.Addresses {
		b.WriteString("  $kept += " + psQuote(a) + " + \"`t\" + $name\n")
	}
	b.WriteString("  $tmp = $hosts + '.' + [guid]::NewGuid().ToString('N') + '.tmp'\n")
	b.WriteString("  [System.IO.File]::WriteAllLines($tmp, [string[]]$kept)\n")
	b.WriteString("  [System.IO.File]::Replace($tmp, $hosts, $hosts + '.bak')\n")
	b.WriteString("  exit 0\n")
	b.WriteString("} catch {\n")
	b.WriteString("  Write-Error $_\n")
	b.WriteString("  if ($tmp -and (Test-Path -LiteralPath $tmp)) { Remove-Item -LiteralPath $tmp -Force }\n")
	b.WriteString("  exit 1\n")
	b.WriteString("}\n")
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
