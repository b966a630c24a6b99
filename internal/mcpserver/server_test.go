package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/hostsub/internal/hostservice"
	"github.com/starford/hostsub/internal/models"
	"github.com/starford/hostsub/internal/monitor"
	"github.com/starford/hostsub/internal/netaddr"
	"github.com/starford/hostsub/internal/privilege"
	"github.com/starford/hostsub/internal/testutil"
)

type fixedClassifier []netaddr.Record

func (f fixedClassifier) Classify(context.Context) []netaddr.Record { return f }

func testServer(t *testing.T) *Server {
	t.Helper()
	store := testutil.TestHosts(t, testutil.SampleHosts)
	classifier := fixedClassifier{
		{Interface: "en0", Family: netaddr.FamilyIPv6, Tag: netaddr.TagTemporary, Address: "2001:db8::9a3b"},
	}
	svc := hostservice.New(hostservice.Deps{
		Hosts:      store,
		Executor:   privilege.NewExecutor(store, &testutil.Broker{Elevated: true, Store: store}, nil),
		Classifier: classifier,
		Detector:   monitor.NewDetector(classifier, monitor.NewSnapshotFile(t.TempDir()), nil),
		History:    testutil.TestDB(t),
	})
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"read_hosts":     srv.readHosts,
		"list_hosts":     srv.listHosts,
		"set_host":       srv.setHost,
		"remove_host":    srv.removeHost,
		"list_addresses": srv.listAddresses,
		"diff_addresses": srv.diffAddresses,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSetAndReadHost(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "set_host", map[string]any{"hostname": "db.local", "addresses": "10.0.0.6, fd00::6"})
	if got := resultText(r); got != "added: db.local -> 10.0.0.6, fd00::6" {
		t.Errorf("set result = %q", got)
	}

	text := resultText(callTool(t, srv, "read_hosts", map[string]any{}))
	if !strings.Contains(text, "fd00::6\tdb.local") || strings.Contains(text, "#") {
		t.Errorf("read = %q", text)
	}

	var found []models.HostEntry
	r = callTool(t, srv, "list_hosts", map[string]any{"hostname": "db.local"})
	if err := json.Unmarshal([]byte(resultText(r)), &found); err != nil || len(found) != 2 {
		t.Errorf("list_hosts = %s (%v)", resultText(r), err)
	}
}

func TestSetHostLine(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "set_host", map[string]any{"line": "10.0.0.9 api.local api"})
	if got := resultText(r); !strings.HasPrefix(got, "replaced: api.local") {
		t.Errorf("set result = %q", got)
	}

	r = callTool(t, srv, "set_host", map[string]any{"line": "nonsense"})
	if !r.IsError {
		t.Error("expected error for bad line")
	}
}

func TestSetHostInvalid(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "set_host", map[string]any{"hostname": "x.local", "addresses": "1.2.3"})
	if !r.IsError {
		t.Errorf("expected error, got %q", resultText(r))
	}
	r = callTool(t, srv, "set_host", map[string]any{})
	if !r.IsError {
		t.Error("expected error for empty arguments")
	}
}

func TestRemoveHost(t *testing.T) {
	srv := testServer(t)
	if got := resultText(callTool(t, srv, "remove_host", map[string]any{"hostname": "api.local"})); got != "removed: api.local" {
		t.Errorf("remove = %q", got)
	}
	if got := resultText(callTool(t, srv, "remove_host", map[string]any{"hostname": "api.local"})); got != "no match: api.local" {
		t.Errorf("second remove = %q", got)
	}
}

func TestAddressTools(t *testing.T) {
	srv := testServer(t)
	if got := resultText(callTool(t, srv, "list_addresses", map[string]any{})); got != "en0 IPv6 (temporary): 2001:db8::9a3b" {
		t.Errorf("list_addresses = %q", got)
	}

	var d monitor.Diff
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "diff_addresses", map[string]any{}))), &d); err != nil {
		t.Fatal(err)
	}
	if !d.FirstRun || len(d.Changed) != 1 {
		t.Errorf("diff = %+v", d)
	}
}

func TestContractResource(t *testing.T) {
	srv := testServer(t)
	res, err := srv.readContract(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(res) != 1 {
		t.Fatalf("readContract = %v, %v", res, err)
	}
	if tc, ok := res[0].(mcp.TextResourceContents); !ok || !strings.Contains(tc.Text, "substring") {
		t.Errorf("contract = %+v", res[0])
	}
}
