package networksetup

import (
	"context"
	"net/netip"
	"os"
	"testing"

	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestServices(t *testing.T) {
	r := commandtest.New().On("networksetup -listallnetworkservices", fixture(t, "services.txt"))
	services, err := New(r).Services(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Service{
		{Name: "Wi-Fi"},
		{Name: "Thunderbolt Bridge"},
		{Name: "iPhone USB", Disabled: true},
	}, services)
}

func TestInfo(t *testing.T) {
	r := commandtest.New().On("networksetup -getinfo Wi-Fi", fixture(t, "getinfo_dhcp.txt"))
	info, err := New(r).Info(context.Background(), "Wi-Fi")
	require.NoError(t, err)

	assert.Equal(t, ModeDHCP, info.Mode)
	assert.Equal(t, netip.MustParseAddr("192.168.1.23"), info.IPAddress)
	assert.Equal(t, netip.MustParseAddr("255.255.255.0"), info.SubnetMask)
	assert.Equal(t, netip.MustParseAddr("192.168.1.1"), info.Router)
	assert.Equal(t, "a0:b1:c2:d3:e4:f5", info.MAC.String())
	assert.Equal(t, "", info.Fields["IPv6 IP address"])
	assert.Equal(t, "Automatic", info.Fields["IPv6"])
	_, ok := info.Fields["Client ID"]
	assert.True(t, ok)
}

func TestParseInfo(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		mode    string
		wantErr bool
	}{
		{"manual without router", "Manual Configuration\nIP address: 10.0.0.2\nSubnet mask: 255.0.0.0\nRouter: none\n", ModeManual, false},
		{"bootp", "BOOTP Configuration\n", ModeBootP, false},
		{"bad ip", "Manual Configuration\nIP address: 10.0.0.999\n", "", true},
		{"no separator", "Manual Configuration\nwhat is this\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseInfo([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, info.Mode)
			assert.False(t, info.Router.IsValid())
		})
	}
}

func TestMACAddress(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		mac     string
		port    string
		wantErr bool
	}{
		{"wifi", "Ethernet Address: a0:b1:c2:d3:e4:f5 (Hardware Port: Wi-Fi)\n", "a0:b1:c2:d3:e4:f5", "Wi-Fi", false},
		{"null", "Ethernet Address: (null) (Hardware Port: iPhone USB)\n", "", "iPhone USB", false},
		{"garbage", "** Error: The parameters were not valid.\n", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := commandtest.New().On("networksetup -getmacaddress svc", tt.out)
			mac, port, err := New(r).MACAddress(context.Background(), "svc")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.port, port)
			if tt.mac == "" {
				assert.Nil(t, mac)
			} else {
				assert.Equal(t, tt.mac, mac.String())
			}
		})
	}
}

func TestSetModes(t *testing.T) {
	ctx := context.Background()
	r := commandtest.New().
		On("networksetup -setdhcp Wi-Fi", "").
		On("networksetup -setdhcp Wi-Fi laptop", "").
		On("networksetup -setbootp Wi-Fi", "").
		On("networksetup -setmanual Wi-Fi 10.0.0.2 255.255.255.0 10.0.0.1", "")
	c := New(r)

	require.NoError(t, c.SetDHCP(ctx, "Wi-Fi", ""))
	require.NoError(t, c.SetDHCP(ctx, "Wi-Fi", "laptop"))
	require.NoError(t, c.SetBootP(ctx, "Wi-Fi"))
	require.NoError(t, c.SetManual(ctx, "Wi-Fi", "10.0.0.2", "255.255.255.0", "10.0.0.1"))
	assert.Len(t, r.Calls(), 4)

	assert.ErrorIs(t, c.SetManual(ctx, "Wi-Fi", "10.0.0.2", "", "10.0.0.1"), ErrInvalidAddress)
	assert.ErrorIs(t, c.SetManual(ctx, "Wi-Fi", "fe80::1", "255.255.255.0", "10.0.0.1"), ErrInvalidAddress)
	assert.Len(t, r.Calls(), 4)
}

func TestVLANs(t *testing.T) {
	r := commandtest.New().On("networksetup -listVLANs", fixture(t, "vlans.txt"))
	vlans, err := New(r).VLANs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []VLAN{
		{Name: "Guest", Parent: "en0", Port: "vlan0", Tag: 20},
		{Name: "Lab", Parent: "en7", Port: "vlan1", Tag: 300},
	}, vlans)
	assert.Equal(t, "vlan0 TAG 20 PARENT en0", vlans[0].String())
}

func TestParseVLANs(t *testing.T) {
	vlans, err := ParseVLANs([]byte(NoVLANsMessage + "\n"))
	require.NoError(t, err)
	assert.Empty(t, vlans)

	_, err = ParseVLANs([]byte("VLAN User Defined Name: x\nTag: abc\n"))
	assert.Error(t, err)
}

func TestCreateDeleteVLAN(t *testing.T) {
	ctx := context.Background()
	r := commandtest.New().
		On("networksetup -createVLAN Guest en0 20", "").
		On("networksetup -deleteVLAN Guest en0 20", "")
	c := New(r)

	v, err := c.CreateVLAN(ctx, "Guest", "en0", 20)
	require.NoError(t, err)
	require.NoError(t, c.DeleteVLAN(ctx, v))

	_, err = c.CreateVLAN(ctx, "Bad", "en0", 5000)
	assert.Error(t, err)
	assert.Len(t, r.Calls(), 2)
}
