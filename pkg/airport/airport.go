// Package airport reads Wi-Fi state from the private airport(8) tool.
package airport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
)

// Status is `airport -I` output keyed by the tool's own labels, e.g.
// SSID, BSSID, channel, agrCtlRSSI.
type Status map[string]string

// SSID is the joined network name.
func (s Status) SSID() string { return s["SSID"] }

// BSSID is the access point hardware address.
func (s Status) BSSID() string { return s["BSSID"] }

// Channel is the channel spec, e.g. "149,80".
func (s Status) Channel() string { return s["channel"] }

// RSSI is the aggregate received signal strength in dBm.
func (s Status) RSSI() (int, bool) {
	n, err := strconv.Atoi(s["agrCtlRSSI"])
	return n, err == nil
}

func (s Status) String() string {
	return fmt.Sprintf("%s %s channel %s %s dB", s.BSSID(), s.SSID(), s.Channel(), s["agrCtlRSSI"])
}

// NormalizeBSSID zero pads and upper-cases each octet, airport prints
// 0:1b:2c:3:4d:5e style addresses.
func NormalizeBSSID(v string) (string, error) {
	parts := strings.Split(v, ":")
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return "", fmt.Errorf("invalid BSSID %q: %w", v, err)
		}
		parts[i] = fmt.Sprintf("%02X", n)
	}
	return strings.Join(parts, ":"), nil
}

// ParseStatus parses `airport -I` output.
func ParseStatus(data []byte) (Status, error) {
	st := make(Status)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("failed to parse airport line %q", line)
		}
		st[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if b, ok := st["BSSID"]; ok && b != "" {
		norm, err := NormalizeBSSID(b)
		if err != nil {
			return nil, err
		}
		st["BSSID"] = norm
	}
	return st, nil
}

// GetStatus runs `airport -I`.
func GetStatus(ctx context.Context, r command.Runner) (Status, error) {
	out, err := r.Run(ctx, nil, "airport", "-I")
	if err != nil {
		return nil, fmt.Errorf("failed to get airport status: %w", err)
	}
	return ParseStatus(out)
}

// Network is one row of a scan.
type Network struct {
	SSID    string `json:"ssid"`
	BSSID   string `json:"bssid"`
	RSSI    int    `json:"rssi"`
	Channel int    `json:"channel"`
}

var scanHeader = []string{"SSID", "BSSID", "RSSI", "CHANNEL", "HT"}

func isScanHeader(line string) bool {
	f := strings.Fields(line)
	if len(f) < len(scanHeader) {
		return false
	}
	for i, h := range scanHeader {
		if f[i] != h {
			return false
		}
	}
	return true
}

func column(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}

// parseChannel reads the leading channel number of "149,+1" or "6".
func parseChannel(rest string) (int, error) {
	f := strings.Fields(rest)
	if len(f) == 0 {
		return 0, fmt.Errorf("missing channel")
	}
	ch, _, _ := strings.Cut(f[0], ",")
	return strconv.Atoi(ch)
}

// ParseScan parses the fixed width `airport -s` table, weakest signal first.
func ParseScan(data []byte) ([]Network, error) {
	var nets []Network
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		if strings.TrimSpace(line) == "" || isScanHeader(line) {
			continue
		}
		rssi, err := strconv.Atoi(strings.TrimSpace(column(line, 51, 55)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSSI in %q: %w", line, err)
		}
		channel, err := parseChannel(column(line, 55, len(line)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse channel in %q: %w", line, err)
		}
		nets = append(nets, Network{
			SSID:    strings.TrimLeft(column(line, 0, 32), " "),
			BSSID:   strings.ToUpper(strings.Trim(column(line, 33, 50), "' ")),
			RSSI:    rssi,
			Channel: channel,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(nets, func(i, j int) bool { return nets[i].RSSI < nets[j].RSSI })
	return nets, nil
}

// Scan runs `airport -s`, limited to ssid when it is not empty.
func Scan(ctx context.Context, r command.Runner, ssid string) ([]Network, error) {
	args := []string{"-s"}
	if ssid != "" {
		args = append(args, ssid)
	}
	out, err := r.Run(ctx, nil, "airport", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for networks: %w", err)
	}
	return ParseScan(out)
}
