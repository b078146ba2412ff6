package airport

import (
	"context"
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

func TestGetStatus(t *testing.T) {
	r := commandtest.New().On("airport -I", fixture(t, "status.txt"))
	st, err := GetStatus(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, "HomeNet", st.SSID())
	assert.Equal(t, "A0:B1:C2:D3:E4:05", st.BSSID())
	assert.Equal(t, "149,80", st.Channel())
	assert.Equal(t, "wpa2-psk", st["link auth"])
	assert.Equal(t, "station", st["op mode"])
	rssi, ok := st.RSSI()
	assert.True(t, ok)
	assert.Equal(t, -54, rssi)
	assert.Equal(t, "A0:B1:C2:D3:E4:05 HomeNet channel 149,80 -54 dB", st.String())
}

func TestNormalizeBSSID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0:1b:2c:3:4d:5e", "00:1B:2C:03:4D:5E", false},
		{"A0:B1:C2:D3:E4:F5", "A0:B1:C2:D3:E4:F5", false},
		{"zz:1b", "", true},
		{"100:1b", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeBSSID(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestScan(t *testing.T) {
	r := commandtest.New().On("airport -s", fixture(t, "scan.txt"))
	nets, err := Scan(context.Background(), r, "")
	require.NoError(t, err)
	require.Len(t, nets, 3)

	assert.Equal(t, Network{SSID: "Coffee Shop", BSSID: "00:1B:2C:3D:4E:5F", RSSI: -80, Channel: 6}, nets[0])
	assert.Equal(t, Network{SSID: "HomeNet", BSSID: "A0:B1:C2:D3:E4:F6", RSSI: -61, Channel: 36}, nets[1])
	assert.Equal(t, Network{SSID: "HomeNet", BSSID: "A0:B1:C2:D3:E4:F5", RSSI: -54, Channel: 149}, nets[2])
}

func TestScanSSID(t *testing.T) {
	r := commandtest.New().On("airport -s HomeNet", "")
	nets, err := Scan(context.Background(), r, "HomeNet")
	require.NoError(t, err)
	assert.Empty(t, nets)
}

func TestParseScanErrors(t *testing.T) {
	_, err := ParseScan([]byte("                         HomeNet a0:b1:c2:d3:e4:f5  abc 149\n"))
	assert.Error(t, err)
	_, err = ParseScan([]byte("                         HomeNet a0:b1:c2:d3:e4:f5  -54\n"))
	assert.Error(t, err)
}
