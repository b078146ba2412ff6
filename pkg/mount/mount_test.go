package mount

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParse(t *testing.T) {
	mps, err := Parse([]byte(fixture(t, "mount.txt")))
	require.NoError(t, err)
	require.Len(t, mps, 6)

	root := mps[0]
	assert.Equal(t, "/dev/disk3s1s1", root.Device)
	assert.Equal(t, "/", root.Path)
	assert.Equal(t, "apfs", root.Filesystem)
	assert.True(t, root.Has("read-only"))
	assert.True(t, root.Has("sealed"))
	assert.False(t, root.Has("nobrowse"))
	assert.Empty(t, root.Owner)

	passport := mps[4]
	assert.Equal(t, "/Volumes/My Passport", passport.Path)
	assert.Equal(t, "hfs", passport.Filesystem)
	assert.Equal(t, "alice", passport.Owner)
	assert.False(t, passport.Has("mounted by alice"))
	assert.Equal(t, "My Passport", passport.Name())

	share := mps[5]
	assert.Equal(t, "//alice@nas.local/share", share.Device)
	assert.Equal(t, "smbfs", share.Filesystem)

	for _, mp := range mps {
		assert.NotEqual(t, "/System/Volumes/Data/home", mp.Path)
	}
}

func TestParseDeviceWithSpaces(t *testing.T) {
	mps, err := Parse([]byte("//guest@nas/My Share on /Volumes/My Share (smbfs, nodev, nosuid, mounted by alice)\n" +
		"/dev/disk5s1 on /Volumes/USB (msdos, local, nodev, nosuid, noowners)\n"))
	require.NoError(t, err)
	require.Len(t, mps, 1)
	assert.Equal(t, "/dev/disk5s1", mps[0].Device)
	assert.Equal(t, "/Volumes/USB", mps[0].Path)
}

func TestList(t *testing.T) {
	notVolume := &command.ExecError{Name: "diskutil", ExitCode: 1}
	r := commandtest.New().
		On("mount", fixture(t, "mount.txt")).
		On("diskutil info -plist /dev/disk3s1s1", fixture(t, "disk3s1s1.plist")).
		Fail("diskutil info -plist /dev/disk3s6", notVolume).
		Fail("diskutil info -plist /dev/disk3s5", notVolume).
		Fail("diskutil info -plist /dev/disk4s1", notVolume)

	mps, err := List(context.Background(), r, true)
	require.NoError(t, err)
	require.Len(t, mps, 6)
	require.NotNil(t, mps[0].Info)
	assert.Equal(t, "Macintosh HD", mps[0].Name())
	assert.Nil(t, mps[1].Info)
	assert.Equal(t, "dev", mps[1].Name())
	assert.Len(t, r.Calls(), 5)
}

func TestListInfoError(t *testing.T) {
	r := commandtest.New().
		On("mount", "/dev/disk9 on /Volumes/X (hfs, local)\n").
		Fail("diskutil info -plist /dev/disk9", command.ErrCommandNotFound)
	_, err := List(context.Background(), r, true)
	assert.ErrorIs(t, err, command.ErrCommandNotFound)

	mps, err := List(context.Background(), r, false)
	require.NoError(t, err)
	assert.Len(t, mps, 1)
}

func TestNewUsage(t *testing.T) {
	tests := []struct {
		name              string
		size, free, avail uint64
		want              Usage
	}{
		{"empty", 0, 0, 0, Usage{}},
		{"half", 100, 50, 50, Usage{Size: 100, Used: 50, Free: 50, Available: 50, Percent: 50}},
		{"reserved blocks", 100, 10, 5, Usage{Size: 100, Used: 90, Free: 10, Available: 5, Percent: 95}},
		{"rounds up", 300, 200, 200, Usage{Size: 300, Used: 100, Free: 200, Available: 200, Percent: 34}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *newUsage(tt.size, tt.free, tt.avail))
		})
	}
}

func TestUsage(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("statfs needs unix")
	}
	mp := &MountPoint{Path: t.TempDir()}
	u, err := mp.Usage()
	require.NoError(t, err)
	assert.NotZero(t, u.Size)
	assert.GreaterOrEqual(t, u.Percent, 0)
	assert.LessOrEqual(t, u.Percent, 100)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan fsnotify.Event, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func(ev fsnotify.Event) error {
			got <- ev
			return nil
		})
	}()

	var ev fsnotify.Event
	for i := 0; ; i++ {
		require.Less(t, i, 50, "no event from watcher")
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("vol%d", i)), nil, 0o644))
		select {
		case ev = <-got:
		case <-time.After(100 * time.Millisecond):
			continue
		}
		break
	}
	assert.True(t, ev.Has(fsnotify.Create))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
