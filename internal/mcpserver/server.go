// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes hosts-file and address tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/hostsub/internal/apperr"
	"github.com/starford/hostsub/internal/hostservice"
)

const contractURI = "hostsub://hosts-format"

// Server wraps the MCP server with hostsub tools.
type Server struct {
	mcp *server.MCPServer
	svc *hostservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *hostservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"hostsub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_hosts",
		mcp.WithDescription("Read the hosts file with comment lines removed."),
	), s.readHosts)

	s.mcp.AddTool(mcp.NewTool("list_hosts",
		mcp.WithDescription("List active hosts mappings as JSON, optionally only those for one name."),
		mcp.WithString("hostname", mcp.Description("Exact hostname or alias to look up")),
	), s.listHosts)

	s.mcp.AddTool(mcp.NewTool("set_host",
		mcp.WithDescription("Map a hostname to one or more addresses, replacing previous lines that "+
			"contain the hostname. Pass either line, or hostname plus addresses. "+
			"Read the hostsub://hosts-format resource for the matching rules."),
		mcp.WithString("line", mcp.Description(`A hosts line such as "10.0.0.5 api.local api"`)),
		mcp.WithString("hostname", mcp.Description("Hostname to map")),
		mcp.WithString("addresses", mcp.Description("Comma-separated IPv4/IPv6 addresses")),
	), s.setHost)

	s.mcp.AddTool(mcp.NewTool("remove_host",
		mcp.WithDescription("Remove every active hosts line containing the hostname."),
		mcp.WithString("hostname", mcp.Required(), mcp.Description("Hostname to remove")),
	), s.removeHost)

	s.mcp.AddTool(mcp.NewTool("list_addresses",
		mcp.WithDescription("List the machine's routable network addresses with interface, family and IPv6 stable/temporary tag."),
	), s.listAddresses)

	s.mcp.AddTool(mcp.NewTool("diff_addresses",
		mcp.WithDescription("Show addresses that are new or changed since the last delivered notification. Does not notify."),
	), s.diffAddresses)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Hosts Table Contract",
			mcp.WithResourceDescription("Hosts file format and edit semantics."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContract,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) readHosts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := s.svc.Read(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) listHosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if name, err := req.RequireString("hostname"); err == nil && name != "" {
		found, err := s.svc.Lookup(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("no mapping for %s", name)), nil
		}
		return jsonResult(found), nil
	}
	entries, err := s.svc.Entries(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries), nil
}

func (s *Server) setHost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var set hostservice.SetRequest
	if line, err := req.RequireString("line"); err == nil && line != "" {
		h, err := hostservice.ParseHostLine(line)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		set = h.Request()
	} else {
		name, err := req.RequireString("hostname")
		if err != nil {
			return mcp.NewToolResultError("either line or hostname is required"), nil
		}
		addrs, err := req.RequireString("addresses")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		set = hostservice.SetRequest{Hostname: name, Addresses: splitList(addrs)}
	}

	res, err := s.svc.Set(ctx, set)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verb := "added"
	if res.Matched {
		verb = "replaced"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s -> %s", verb, set.Hostname, strings.Join(set.Addresses, ", "))), nil
}

func (s *Server) removeHost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("hostname")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Remove(ctx, name); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("no match: %s", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s", name)), nil
}

func (s *Server) listAddresses(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs := s.svc.Addresses(ctx)
	if len(recs) == 0 {
		return mcp.NewToolResultText("no routable addresses"), nil
	}
	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = r.String()
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) diffAddresses(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Diff(ctx)), nil
}

func (s *Server) readContract(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     HostsFormatContract,
		},
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
