// Package networksetup reads and changes network service configuration
// through networksetup(8).
package networksetup

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
)

// IPv4 configuration modes.
const (
	ModeManual = "manual"
	ModeDHCP   = "dhcp"
	ModeBootP  = "bootp"
)

// ErrInvalidAddress is returned for a malformed manual configuration.
var ErrInvalidAddress = errors.New("invalid IPv4 address")

var reMACAddress = regexp.MustCompile(`^Ethernet Address: (?P<mac>.*) \(Hardware Port: (?P<port>[^/)]+)\)$`)

const disabledNotice = "An asterisk (*) denotes that a network service is disabled."

// Service is a network service such as "Wi-Fi" or "Thunderbolt Bridge".
type Service struct {
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
}

func (s Service) String() string { return s.Name }

// Info is `networksetup -getinfo <service>`.
type Info struct {
	Mode       string            `json:"mode,omitempty"`
	IPAddress  netip.Addr        `json:"ip_address,omitzero"`
	SubnetMask netip.Addr        `json:"subnet_mask,omitzero"`
	Router     netip.Addr        `json:"router,omitzero"`
	MAC        net.HardwareAddr  `json:"-"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Client runs networksetup.
type Client struct {
	r command.Runner
}

// New returns a Client that runs networksetup through r.
func New(r command.Runner) *Client {
	return &Client{r: r}
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := c.r.Run(ctx, nil, "networksetup", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run networksetup %s: %w", args[0], err)
	}
	return out, nil
}

// ParseServices parses `networksetup -listallnetworkservices`.
func ParseServices(data []byte) []Service {
	var services []Service
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		if line == "" || line == disabledNotice {
			continue
		}
		if name, ok := strings.CutPrefix(line, "*"); ok {
			services = append(services, Service{Name: name, Disabled: true})
			continue
		}
		services = append(services, Service{Name: line})
	}
	return services
}

// Services lists every network service.
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	out, err := c.run(ctx, "-listallnetworkservices")
	if err != nil {
		return nil, err
	}
	return ParseServices(out), nil
}

// ParseInfo parses `networksetup -getinfo` output. A "none" value is empty.
func ParseInfo(data []byte) (*Info, error) {
	info := &Info{Fields: make(map[string]string)}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "Manual Configuration":
			info.Mode = ModeManual
			continue
		case "DHCP Configuration":
			info.Mode = ModeDHCP
			continue
		case "BOOTP Configuration":
			info.Mode = ModeBootP
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("failed to parse networksetup line %q", line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if value == "none" {
			value = ""
		}
		info.Fields[key] = value
		if value == "" {
			continue
		}

		var err error
		switch key {
		case "IP address":
			info.IPAddress, err = netip.ParseAddr(value)
		case "Subnet mask":
			info.SubnetMask, err = netip.ParseAddr(value)
		case "Router":
			info.Router, err = netip.ParseAddr(value)
		case "Ethernet Address", "Wi-Fi ID":
			info.MAC, err = net.ParseMAC(value)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return info, nil
}

// Info returns the IPv4 configuration of a service.
func (c *Client) Info(ctx context.Context, service string) (*Info, error) {
	out, err := c.run(ctx, "-getinfo", service)
	if err != nil {
		return nil, err
	}
	return ParseInfo(out)
}

// ParseMACAddress parses `networksetup -getmacaddress` output. Services
// without hardware report (null) and return a nil address.
func ParseMACAddress(data []byte) (net.HardwareAddr, string, error) {
	m := reMACAddress.FindStringSubmatch(strings.TrimSpace(string(data)))
	if m == nil {
		return nil, "", fmt.Errorf("failed to parse mac address from %q", data)
	}
	mac, port := m[1], m[2]
	if mac == "(null)" {
		return nil, port, nil
	}
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, port, fmt.Errorf("failed to parse mac address: %w", err)
	}
	return hw, port, nil
}

// MACAddress returns the hardware address and port of a service.
func (c *Client) MACAddress(ctx context.Context, service string) (net.HardwareAddr, string, error) {
	out, err := c.run(ctx, "-getmacaddress", service)
	if err != nil {
		return nil, "", err
	}
	return ParseMACAddress(out)
}

// SetDHCP switches a service to DHCP, sending clientID when it is set.
func (c *Client) SetDHCP(ctx context.Context, service, clientID string) error {
	args := []string{"-setdhcp", service}
	if clientID != "" {
		args = append(args, clientID)
	}
	_, err := c.run(ctx, args...)
	return err
}

// SetBootP switches a service to BOOTP.
func (c *Client) SetBootP(ctx context.Context, service string) error {
	_, err := c.run(ctx, "-setbootp", service)
	return err
}

// SetManual sets a static IPv4 address, netmask and router.
func (c *Client) SetManual(ctx context.Context, service, ip, mask, router string) error {
	args := []string{"-setmanual", service}
	for _, v := range []struct{ name, value string }{
		{"address", ip},
		{"netmask", mask},
		{"router", router},
	} {
		addr, err := netip.ParseAddr(v.value)
		if err != nil || !addr.Is4() {
			return fmt.Errorf("%s %q: %w", v.name, v.value, ErrInvalidAddress)
		}
		args = append(args, addr.String())
	}
	_, err := c.run(ctx, args...)
	return err
}
