// Package ifconfig parses network interface configuration from ifconfig(8).
package ifconfig

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
)

var (
	reHeader = regexp.MustCompile(`^(?P<name>[^\s:]+):\s+flags=(?P<bits>[0-9a-fA-F]+)<(?P<flags>[^>]*)>(?:\s+mtu\s+(?P<mtu>\d+))?`)
	reInet   = regexp.MustCompile(`^inet\s+(?P<address>[0-9.]+)(?:\s+-->\s+(?P<peer>[0-9.]+))?\s+netmask\s+(?P<netmask>[.x0-9a-fA-F]+)(?:\s+broadcast\s+(?P<broadcast>[0-9.]+))?$`)
	reInet6  = regexp.MustCompile(`^inet6\s+(?P<address>[0-9a-fA-F:.]+)(?:%(?P<scope>\S+))?\s+prefixlen\s+(?P<prefix>\d+)(?P<rest>(?:\s+\S+)*)$`)
)

// Address is an IPv4 or IPv6 address bound to an interface.
type Address struct {
	Type      string     `json:"type"` // IPv4 or IPv6
	Address   netip.Addr `json:"address"`
	Netmask   netip.Addr `json:"netmask,omitzero"`
	Broadcast netip.Addr `json:"broadcast,omitzero"`
	Peer      netip.Addr `json:"peer,omitzero"`
	Prefix    int        `json:"prefix"`
	Scope     string     `json:"scope,omitempty"`
	ScopeID   string     `json:"scope_id,omitempty"`
	Flags     []string   `json:"flags,omitempty"`
}

// Network returns the address with its prefix length.
func (a Address) Network() netip.Prefix {
	return netip.PrefixFrom(a.Address, a.Prefix)
}

func (a Address) String() string {
	return a.Network().String()
}

// Interface is one network interface block.
type Interface struct {
	Name      string            `json:"name"`
	Flags     []string          `json:"flags"`
	MTU       int               `json:"mtu,omitempty"`
	MAC       net.HardwareAddr  `json:"-"`
	Addresses []Address         `json:"addresses,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Up reports whether the UP flag is set.
func (i *Interface) Up() bool {
	return i.Has("UP")
}

// Has reports whether the interface carries flag.
func (i *Interface) Has(flag string) bool {
	for _, f := range i.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Status is the media status, e.g. active or inactive.
func (i *Interface) Status() string {
	return i.Fields["status"]
}

// IPv4 returns the IPv4 addresses.
func (i *Interface) IPv4() []Address {
	return i.addresses("IPv4")
}

// IPv6 returns the IPv6 addresses.
func (i *Interface) IPv6() []Address {
	return i.addresses("IPv6")
}

func (i *Interface) addresses(typ string) []Address {
	var out []Address
	for _, a := range i.Addresses {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func (i *Interface) parse(line string) error {
	if m := reInet.FindStringSubmatch(line); m != nil {
		return i.parseInet(m)
	}
	if m := reInet6.FindStringSubmatch(line); m != nil {
		return i.parseInet6(m)
	}

	key, value, ok := strings.Cut(line, " ")
	if !ok || strings.Contains(key, "=") {
		key, value, ok = strings.Cut(line, "=")
		if !ok && !strings.HasSuffix(line, ":") {
			return fmt.Errorf("failed to split ifconfig line %q", line)
		}
	}
	key = strings.TrimSuffix(strings.TrimSpace(key), ":")
	value = strings.TrimSpace(value)
	if key == "ether" {
		mac, err := net.ParseMAC(value)
		if err != nil {
			return fmt.Errorf("failed to parse %s MAC address %q: %w", i.Name, value, err)
		}
		i.MAC = mac
	}
	if i.Fields == nil {
		i.Fields = make(map[string]string)
	}
	i.Fields[key] = value
	return nil
}

func (i *Interface) parseInet(m []string) error {
	get := func(name string) string { return m[reInet.SubexpIndex(name)] }
	addr, err := netip.ParseAddr(get("address"))
	if err != nil {
		return fmt.Errorf("failed to parse %s address: %w", i.Name, err)
	}
	mask, err := ParseNetmask(get("netmask"))
	if err != nil {
		return fmt.Errorf("failed to parse %s netmask: %w", i.Name, err)
	}
	a := Address{Type: "IPv4", Address: addr, Netmask: mask, Prefix: maskBits(mask)}
	if b := get("broadcast"); b != "" {
		if a.Broadcast, err = netip.ParseAddr(b); err != nil {
			return fmt.Errorf("failed to parse %s broadcast: %w", i.Name, err)
		}
	}
	if p := get("peer"); p != "" {
		if a.Peer, err = netip.ParseAddr(p); err != nil {
			return fmt.Errorf("failed to parse %s peer: %w", i.Name, err)
		}
	}
	i.Addresses = append(i.Addresses, a)
	return nil
}

func (i *Interface) parseInet6(m []string) error {
	get := func(name string) string { return m[reInet6.SubexpIndex(name)] }
	addr, err := netip.ParseAddr(get("address"))
	if err != nil {
		return fmt.Errorf("failed to parse %s address: %w", i.Name, err)
	}
	prefix, err := strconv.Atoi(get("prefix"))
	if err != nil {
		return fmt.Errorf("failed to parse %s prefixlen: %w", i.Name, err)
	}
	a := Address{Type: "IPv6", Address: addr, Prefix: prefix, Scope: get("scope")}
	rest := strings.Fields(get("rest"))
	for j := 0; j < len(rest); j++ {
		if rest[j] == "scopeid" && j+1 < len(rest) {
			a.ScopeID = rest[j+1]
			j++
			continue
		}
		a.Flags = append(a.Flags, rest[j])
	}
	i.Addresses = append(i.Addresses, a)
	return nil
}

// ParseNetmask accepts dotted quad or the 0xffffff00 form ifconfig prints.
func ParseNetmask(s string) (netip.Addr, error) {
	if hexMask, ok := strings.CutPrefix(s, "0x"); ok {
		b, err := hex.DecodeString(hexMask)
		if err != nil || len(b) != 4 {
			return netip.Addr{}, fmt.Errorf("invalid netmask %q", s)
		}
		return netip.AddrFrom4([4]byte(b)), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("invalid netmask %q", s)
	}
	return addr, nil
}

func maskBits(mask netip.Addr) int {
	b := mask.As4()
	ones, _ := net.IPv4Mask(b[0], b[1], b[2], b[3]).Size()
	return ones
}

// Parse parses ifconfig output into interfaces in output order.
func Parse(data []byte) ([]*Interface, error) {
	var (
		ifaces []*Interface
		cur    *Interface
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), " \r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if raw[0] == '\t' || raw[0] == ' ' {
			if cur == nil {
				return nil, fmt.Errorf("ifconfig line before any interface: %q", raw)
			}
			if err := cur.parse(strings.TrimSpace(raw)); err != nil {
				return nil, err
			}
			continue
		}
		m := reHeader.FindStringSubmatch(raw)
		if m == nil {
			return nil, fmt.Errorf("failed to parse ifconfig interface line %q", raw)
		}
		cur = &Interface{Name: m[reHeader.SubexpIndex("name")]}
		if flags := m[reHeader.SubexpIndex("flags")]; flags != "" {
			cur.Flags = strings.Split(flags, ",")
		}
		if mtu := m[reHeader.SubexpIndex("mtu")]; mtu != "" {
			cur.MTU, _ = strconv.Atoi(mtu)
		}
		ifaces = append(ifaces, cur)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ifaces, nil
}

// Load runs ifconfig.
func Load(ctx context.Context, r command.Runner) ([]*Interface, error) {
	out, err := r.Run(ctx, nil, "ifconfig")
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}
	return Parse(out)
}

// Find returns the interface with the given name.
func Find(ifaces []*Interface, name string) (*Interface, bool) {
	for _, i := range ifaces {
		if i.Name == name {
			return i, true
		}
	}
	return nil, false
}
