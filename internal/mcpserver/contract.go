package mcpserver

// HostsFormatContract explains the hosts table and how the tools edit it.
const HostsFormatContract = `# Hosts Table Contract

The hosts file maps addresses to names ahead of DNS. One mapping per line:

` + "```" + `
<address>	<hostname> [alias...]   # optional comment
` + "```" + `

Lines whose first non-blank character is ` + "`#`" + ` are comments.

## Editing rules

1. ` + "`set_host`" + ` removes every active line that contains the hostname as a
   **substring**, then appends one ` + "`<address>\\t<hostname>`" + ` line per address.
   Setting ` + "`host1`" + ` therefore also drops a line for ` + "`host10`" + `.
2. ` + "`remove_host`" + ` uses the same substring filter and appends nothing. It
   reports "no match" and leaves the file untouched when no line matched.
3. Every edit first copies the previous file to ` + "`hosts.bak`" + `.
4. Addresses are IPv4 (four parts 0-255) or IPv6 (full or ` + "`::`" + `-compressed).
   Hostnames follow RFC 1123 and are at most 253 characters.
5. When the server is not running with administrator rights, each edit opens
   the operating system's elevation prompt and blocks until it is answered.
`
