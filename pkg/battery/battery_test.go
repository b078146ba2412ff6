package battery

import (
	"context"
	"os"
	"testing"

	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/blacktop/darwinist/pkg/ioreg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	data, err := os.ReadFile("testdata/ioreg_battery.txt")
	require.NoError(t, err)
	r := commandtest.New().On("ioreg -r -w0 -n AppleSmartBattery", string(data))

	batteries, err := Load(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, batteries, 1)

	b := batteries[0]
	assert.Equal(t, "bq20z451", b.DeviceName)
	assert.Equal(t, "SMP", b.Manufacturer)
	assert.Equal(t, "D865033Y0D3GJQLAS", b.SerialNumber)
	assert.Equal(t, "2017-02-21", b.ManufactureDate)
	assert.True(t, b.Installed)
	assert.True(t, b.ExternalConnected)
	assert.True(t, b.FullyCharged)
	assert.False(t, b.IsCharging)
	assert.Equal(t, 5598, b.CurrentCapacity)
	assert.Equal(t, 5713, b.MaxCapacity)
	assert.Equal(t, 214, b.CycleCount)
	assert.InDelta(t, 29.84, b.Temperature, 0.001)
	assert.InDelta(t, 12.307, b.Voltage, 0.0001)
	assert.Equal(t, 98, b.Percent)
	assert.Equal(t, "FULL", b.Status())
	assert.Equal(t, "bq20z451 FULL 98% 5598/5713 mAh 214 cycles", b.String())

	assert.NotContains(t, b.Extra, "CellVoltage")
	assert.NotContains(t, b.Extra, "LegacyBatteryInfo")
	assert.Equal(t, "200", b.Extra["PackReserve"])
}

func TestManufactureDate(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{19029, "2017-02-21"},
		{0, "1980-00-00"},
		{(20 << 9) | (12 << 5) | 31, "2000-12-31"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ManufactureDate(tt.in))
	}
}

func TestFromEntry(t *testing.T) {
	tests := []struct {
		name        string
		props       map[string]string
		wantPercent int
		wantStatus  string
		wantAmps    int
		wantErr     bool
	}{
		{
			name:        "discharging with negative amperage",
			props:       map[string]string{"CurrentCapacity": "50", "MaxCapacity": "200", "Amperage": "18446744073709550616"},
			wantPercent: 25,
			wantStatus:  "DISCHARGING",
			wantAmps:    -1000,
		},
		{
			name:        "signed amperage",
			props:       map[string]string{"CurrentCapacity": "150", "MaxCapacity": "200", "Amperage": "-512"},
			wantPercent: 75,
			wantStatus:  "DISCHARGING",
			wantAmps:    -512,
		},
		{
			name:    "bad amperage",
			props:   map[string]string{"Amperage": "lots"},
			wantErr: true,
		},
		{
			name:        "charging without capacities",
			props:       map[string]string{"IsCharging": "Yes"},
			wantPercent: PercentUnknown,
			wantStatus:  "CHARGING",
		},
		{
			name:    "bad temperature",
			props:   map[string]string{"Temperature": "hot"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := FromEntry(&ioreg.Entry{Name: "AppleSmartBattery", Properties: tt.props})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPercent, b.Percent)
			assert.Equal(t, tt.wantStatus, b.Status())
			assert.Equal(t, tt.wantAmps, b.Amperage)
		})
	}
}
