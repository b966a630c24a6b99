package netaddr

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/starford/hostsub/internal/apperr"
)

// Interface is the subset of net.Interface the classifier looks at.
type Interface struct {
	Name  string
	Flags net.Flags
	Addrs []net.IP
}

// Source lists interfaces and their bound addresses.
type Source func() ([]Interface, error)

// SystemInterfaces reads interfaces from the OS.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, ifc := range ifaces {
		addrs, err := ifc.Addrs()
		if err != nil {
			return nil, fmt.Errorf("addrs of %s: %w", ifc.Name, err)
		}
		item := Interface{Name: ifc.Name, Flags: ifc.Flags}
		for _, a := range addrs {
			switch v := a.(type) {
			case *net.IPNet:
				item.Addrs = append(item.Addrs, v.IP)
			case *net.IPAddr:
				item.Addrs = append(item.Addrs, v.IP)
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// Classifier turns interface listings into Records.
type Classifier struct {
	source Source
	logger *slog.Logger
}

// NewClassifier creates a Classifier. A nil source means SystemInterfaces.
func NewClassifier(source Source, logger *slog.Logger) *Classifier {
	if source == nil {
		source = SystemInterfaces
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{source: source, logger: logger}
}

// Classify returns the current address set. An enumeration failure is
// logged and yields an empty result, never an error. Order is not meaningful.
func (c *Classifier) Classify(_ context.Context) []Record {
	ifaces, err := c.source()
	if err != nil {
		c.logger.Warn("netaddr: enumeration failed",
			slog.String("error", fmt.Errorf("%w: %w", apperr.ErrEnumeration, err).Error()))
		return []Record{}
	}

	out := []Record{}
	for _, ifc := range ifaces {
		if skipInterface(ifc) {
			continue
		}
		for _, ip := range ifc.Addrs {
			if rec, ok := classifyIP(ifc.Name, ip.String()); ok {
				out = append(out, rec)
			}
		}
	}
	return out
}

// skipInterface drops loopback, down and virtual interfaces. Go does not
// expose a virtual flag; alias sub-interfaces ("eth0:1") stand in for it.
func skipInterface(ifc Interface) bool {
	return ifc.Flags&net.FlagLoopback != 0 ||
		ifc.Flags&net.FlagUp == 0 ||
		strings.Contains(ifc.Name, ":")
}

// classifyIP applies the address filters to one textual address, which may
// carry a %zone suffix.
func classifyIP(iface, text string) (Record, bool) {
	if i := strings.IndexByte(text, '%'); i >= 0 {
		text = text[:i]
	}
	ip := net.ParseIP(text)
	if ip == nil || ip.IsLoopback() {
		return Record{}, false
	}

	family := FamilyIPv4
	if ip.To4() == nil {
		family = FamilyIPv6
	}
	addr := ip.String()
	expanded := addr
	if family == FamilyIPv6 {
		expanded = ExpandIPv6(ip)
	}
	if strings.HasPrefix(strings.ToLower(addr), "fe80") || strings.Contains(expanded, "0:0:0") {
		return Record{}, false
	}

	rec := Record{Interface: iface, Family: family, Address: addr}
	if family == FamilyIPv6 {
		rec.Tag = TagStable
		if IsTemporaryIPv6(expanded) {
			rec.Tag = TagTemporary
		}
	}
	return rec, true
}

// ExpandIPv6 renders all eight groups in lower-case hex without zero padding
// or "::" compression ("2001:db8:0:0:0:0:0:1").
func ExpandIPv6(ip net.IP) string {
	ip16 := ip.To16()
	if ip16 == nil {
		return ip.String()
	}
	groups := make([]string, 8)
	for i := 0; i < 8; i++ {
		groups[i] = fmt.Sprintf("%x", uint16(ip16[2*i])<<8|uint16(ip16[2*i+1]))
	}
	return strings.Join(groups, ":")
}
