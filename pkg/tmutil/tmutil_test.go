package tmutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		version string
		date    time.Time
		wantErr bool
	}{
		{"tmutil version 4.0.0 (built Sep 22 2023)\n", "4.0.0", time.Date(2023, time.September, 22, 0, 0, 0, 0, time.UTC), false},
		{"tmutil version 3.0 (built Aug  2 2019)", "3.0", time.Date(2019, time.August, 2, 0, 0, 0, 0, time.UTC), false},
		{"tmutil version 3.0 (built yesterday)", "", time.Time{}, true},
		{"usage: tmutil", "", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, v.Version)
			assert.True(t, tt.date.Equal(v.BuildDate), "BuildDate = %v", v.BuildDate)
		})
	}
}

func TestParseDestinations(t *testing.T) {
	data, err := os.ReadFile("testdata/destinationinfo.txt")
	require.NoError(t, err)
	dests, err := ParseDestinations(data)
	require.NoError(t, err)
	require.Len(t, dests, 2)

	assert.Equal(t, "Backup", dests[0].Name)
	assert.Equal(t, "/Volumes/Backup", dests[0].MountPoint)
	assert.Equal(t, "0A1B2C3D-4E5F-6789-ABCD-EF0123456789", dests[0].ID)
	assert.Equal(t, "smb://nas.local/TimeMachine", dests[1].URL)
	assert.Equal(t, map[string]string{"Last Used": "2023-10-01"}, dests[1].Extra)

	_, err = ParseDestinations([]byte("garbage\n"))
	assert.Error(t, err)

	dests, err = ParseDestinations(nil)
	require.NoError(t, err)
	assert.Empty(t, dests)
}

func TestDestinations(t *testing.T) {
	data, err := os.ReadFile("testdata/destinationinfo.plist")
	require.NoError(t, err)
	r := commandtest.New().On("tmutil destinationinfo -X", string(data))
	dests, err := New(r).Destinations(context.Background())
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.Equal(t, "Local", dests[0].Kind)
	assert.Equal(t, 1, dests[0].Last)
}

func TestDestinationsTextFallback(t *testing.T) {
	text, err := os.ReadFile("testdata/destinationinfo.txt")
	require.NoError(t, err)

	tests := []struct {
		name string
		r    *commandtest.Runner
	}{
		{
			name: "no -X support",
			r: commandtest.New().
				Fail("tmutil destinationinfo -X", &command.ExecError{Name: "tmutil", ExitCode: 1}).
				On("tmutil destinationinfo", string(text)),
		},
		{
			name: "not a plist",
			r: commandtest.New().
				On("tmutil destinationinfo -X", string(text)).
				On("tmutil destinationinfo", string(text)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dests, err := New(tt.r).Destinations(context.Background())
			require.NoError(t, err)
			require.Len(t, dests, 2)
			assert.Equal(t, "Backup", dests[0].Name)
			assert.Len(t, tt.r.Calls(), 2)
		})
	}

	r := commandtest.New().Fail("tmutil destinationinfo -X", command.ErrCommandNotFound)
	_, err = New(r).Destinations(context.Background())
	assert.ErrorIs(t, err, command.ErrCommandNotFound)
	assert.Len(t, r.Calls(), 1)
}

func TestRootOnly(t *testing.T) {
	orig := geteuid
	t.Cleanup(func() { geteuid = orig })

	geteuid = func() int { return 501 }
	r := commandtest.New()
	u := New(r)
	assert.ErrorIs(t, u.Enable(context.Background()), ErrNotRoot)
	assert.ErrorIs(t, u.Disable(context.Background()), ErrNotRoot)
	assert.Empty(t, r.Calls())

	geteuid = func() int { return 0 }
	r.On("tmutil enable", "").On("tmutil disable", "")
	require.NoError(t, u.Enable(context.Background()))
	require.NoError(t, u.Disable(context.Background()))
	assert.Len(t, r.Calls(), 2)
}

func TestBackupControl(t *testing.T) {
	r := commandtest.New().
		On("tmutil version", "tmutil version 4.0.0 (built Sep 22 2023)\n").
		On("tmutil startbackup --block", "").
		On("tmutil stopbackup", "").
		On("tmutil latestbackup", "/Volumes/Backup/Backups.backupdb/mac/2023-10-01-120000\n")
	u := New(r)
	ctx := context.Background()

	v, err := u.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4.0.0", v.Version)
	require.NoError(t, u.StartBackup(ctx, true))
	require.NoError(t, u.StopBackup(ctx))
	latest, err := u.LatestBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/Volumes/Backup/Backups.backupdb/mac/2023-10-01-120000", latest)

	assert.Error(t, u.StartBackup(ctx, false))
}
