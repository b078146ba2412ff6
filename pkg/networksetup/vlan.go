package networksetup

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// NoVLANsMessage is what -listVLANs prints when nothing is configured.
const NoVLANsMessage = "There are no VLANs currently configured on this system."

// VLAN is a tagged virtual interface on a parent device.
type VLAN struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Port   string `json:"port"`
	Tag    int    `json:"tag"`
}

func (v VLAN) String() string {
	return fmt.Sprintf("%s TAG %d PARENT %s", v.Port, v.Tag, v.Parent)
}

var vlanPrefixes = []struct {
	prefix string
	set    func(*VLAN, string) error
}{
	{"VLAN User Defined Name:", func(v *VLAN, s string) error { v.Name = s; return nil }},
	{"Parent Device:", func(v *VLAN, s string) error { v.Parent = s; return nil }},
	{`Device ("Hardware" Port):`, func(v *VLAN, s string) error { v.Port = s; return nil }},
	{"Tag:", func(v *VLAN, s string) (err error) {
		v.Tag, err = strconv.Atoi(s)
		return err
	}},
}

// ParseVLANs parses `networksetup -listVLANs`, blank lines separate entries.
func ParseVLANs(data []byte) ([]VLAN, error) {
	var (
		vlans []VLAN
		cur   *VLAN
	)
	flush := func() {
		if cur != nil {
			vlans = append(vlans, *cur)
			cur = nil
		}
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		if line == NoVLANsMessage {
			return nil, nil
		}
		if line == "" {
			flush()
			continue
		}
		for _, p := range vlanPrefixes {
			value, ok := strings.CutPrefix(line, p.prefix)
			if !ok {
				continue
			}
			if cur == nil {
				cur = &VLAN{}
			}
			if err := p.set(cur, strings.TrimSpace(value)); err != nil {
				return nil, fmt.Errorf("failed to parse VLAN line %q: %w", line, err)
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return vlans, nil
}

// VLANs lists the configured VLANs.
func (c *Client) VLANs(ctx context.Context) ([]VLAN, error) {
	out, err := c.run(ctx, "-listVLANs")
	if err != nil {
		return nil, err
	}
	return ParseVLANs(out)
}

// CreateVLAN adds a VLAN with tag on parent.
func (c *Client) CreateVLAN(ctx context.Context, name, parent string, tag int) (VLAN, error) {
	if tag < 1 || tag > 4094 {
		return VLAN{}, fmt.Errorf("invalid VLAN tag %d: must be 1-4094", tag)
	}
	if _, err := c.run(ctx, "-createVLAN", name, parent, strconv.Itoa(tag)); err != nil {
		return VLAN{}, err
	}
	return VLAN{Name: name, Parent: parent, Tag: tag}, nil
}

// DeleteVLAN removes a VLAN.
func (c *Client) DeleteVLAN(ctx context.Context, v VLAN) error {
	_, err := c.run(ctx, "-deleteVLAN", v.Name, v.Parent, strconv.Itoa(v.Tag))
	return err
}
