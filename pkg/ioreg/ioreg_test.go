package ioreg

import (
	"context"
	"os"
	"testing"

	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func TestParseDisks(t *testing.T) {
	entries, err := Parse(fixture(t, "disks.txt"))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	root := entries[0]
	assert.Equal(t, "Root", root.Name)
	assert.Equal(t, "IORegistryEntry", root.Class)
	assert.Equal(t, uint64(0x100000100), root.ID)
	assert.Equal(t, "Darwin Kernel Version 23.1.0", root.String("IOKitBuildVersion"))

	media := Filter(entries, "IOMedia")
	require.Len(t, media, 2)
	assert.Equal(t, "disk0", media[0].String("BSD Name"))
	size, ok := media[0].Int("Size")
	assert.True(t, ok)
	assert.Equal(t, int64(500277790720), size)
	whole, ok := media[0].Bool("Whole")
	assert.True(t, ok)
	assert.True(t, whole)
	whole, ok = media[1].Bool("Whole")
	assert.True(t, ok)
	assert.False(t, whole)
}

func TestEntryAccessors(t *testing.T) {
	e := &Entry{Properties: map[string]string{
		"Name":  "bq20z451",
		"Count": "214",
		"Flag":  "true",
	}}
	tests := []struct {
		key  string
		call func(string) bool
		want bool
	}{
		{"Count", func(k string) bool { _, ok := e.Int(k); return ok }, true},
		{"Name", func(k string) bool { _, ok := e.Int(k); return ok }, false},
		{"Flag", func(k string) bool { _, ok := e.Bool(k); return ok }, true},
		{"Name", func(k string) bool { _, ok := e.Bool(k); return ok }, false},
		{"Missing", func(k string) bool { _, ok := e.Int(k); return ok }, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.call(tt.key), tt.key)
	}
	assert.True(t, e.Has("Name"))
	assert.False(t, e.Has("Missing"))
}

func TestQuery(t *testing.T) {
	r := commandtest.New().On("ioreg -r -w0 -n AppleSmartBattery", string(fixture(t, "battery.txt")))
	entries, err := Load(context.Background(), r, "AppleSmartBattery")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SMP", entries[0].String("Manufacturer"))
	assert.Equal(t, `{"Amperage"=0,"Flags"=7,"Capacity"=5713,"Current"=5598,"Voltage"=12307,"Cycle Count"=214}`,
		entries[0].String("LegacyBatteryInfo"))
}

func TestLoadWholeRegistry(t *testing.T) {
	r := commandtest.New().On("ioreg -lw0", string(fixture(t, "disks.txt")))
	entries, err := Load(context.Background(), r, " ")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestParseEmpty(t *testing.T) {
	entries, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
