package hdiutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

var notVolume = &command.ExecError{Name: "diskutil", ExitCode: 1, Stderr: []byte("Could not find disk: /Users/me/Work")}

func TestLoadImages(t *testing.T) {
	imgs, err := LoadImages("testdata/diskimages.yaml", commandtest.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"music", "work"}, imgs.Names())

	work, ok := imgs.Match("work")
	require.True(t, ok)
	assert.Equal(t, "Encrypted work documents", work.Description)
	assert.Equal(t, []string{"-nobrowse", "-owners", "on", "-mountpoint", "/Users/me/Work"}, work.AttachArgs())

	music, ok := imgs.Match("/Volumes/Music")
	require.True(t, ok)
	assert.Equal(t, "music", music.Name)
	assert.Equal(t, []string{"-readonly"}, music.AttachArgs())
	assert.Equal(t, "/Users/me/music.dmg mounted on /Volumes/Music (-readonly)", music.String())

	byPath, ok := imgs.Match("/Users/me/Documents/work.sparsebundle")
	require.True(t, ok)
	assert.Same(t, work, byPath)

	_, ok = imgs.Match("nope")
	assert.False(t, ok)
}

func TestLoadImagesMissingFile(t *testing.T) {
	imgs, err := LoadImages(filepath.Join(t.TempDir(), "none.yaml"), commandtest.New())
	require.NoError(t, err)
	assert.Empty(t, imgs.Names())
}

func TestParseImagesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown option", "a:\n  image: /a.dmg\n  mountpoint: /Volumes/A\n  size: 10\n"},
		{"missing image", "a:\n  mountpoint: /Volumes/A\n"},
		{"missing mountpoint", "a:\n  image: /a.dmg\n"},
		{"args map", "a:\n  image: /a.dmg\n  mountpoint: /Volumes/A\n  args: {x: y}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImages([]byte(tt.yaml), nil)
			assert.Error(t, err)
		})
	}
}

func TestParseImagesEmpty(t *testing.T) {
	imgs, err := ParseImages(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, imgs.List())
}

func workImage(t *testing.T, r *commandtest.Runner) *Image {
	t.Helper()
	imgs, err := ParseImages([]byte(fixture(t, "diskimages.yaml")), r)
	require.NoError(t, err)
	img, ok := imgs.Match("work")
	require.True(t, ok)
	return img
}

func TestAttach(t *testing.T) {
	t.Run("with passphrase", func(t *testing.T) {
		r := commandtest.New().
			Fail("diskutil info -plist /Users/me/Work", notVolume).
			On("hdiutil attach -stdinpass -nobrowse -owners on -mountpoint /Users/me/Work /Users/me/Documents/work.sparsebundle", "")
		require.NoError(t, workImage(t, r).Attach(context.Background(), "hunter2"))
		calls := r.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "hunter2\x00", calls[1].Stdin)
	})

	t.Run("without passphrase", func(t *testing.T) {
		r := commandtest.New().
			Fail("diskutil info -plist /Users/me/Work", notVolume).
			On("hdiutil attach -nobrowse -owners on -mountpoint /Users/me/Work /Users/me/Documents/work.sparsebundle", "")
		require.NoError(t, workImage(t, r).Attach(context.Background(), ""))
		assert.Empty(t, r.Calls()[1].Stdin)
	})

	t.Run("already attached", func(t *testing.T) {
		r := commandtest.New().On("diskutil info -plist /Users/me/Work", fixture(t, "mounted.plist"))
		err := workImage(t, r).Attach(context.Background(), "")
		assert.ErrorIs(t, err, ErrAlreadyAttached)
		assert.Len(t, r.Calls(), 1)
	})

	t.Run("tool missing", func(t *testing.T) {
		r := commandtest.New().Fail("diskutil info -plist /Users/me/Work", command.ErrCommandNotFound)
		err := workImage(t, r).Attach(context.Background(), "")
		assert.True(t, errors.Is(err, command.ErrCommandNotFound))
	})
}

func TestDetach(t *testing.T) {
	t.Run("attached", func(t *testing.T) {
		r := commandtest.New().
			On("diskutil info -plist /Users/me/Work", fixture(t, "mounted.plist")).
			On("hdiutil detach /Users/me/Work -force", "")
		require.NoError(t, workImage(t, r).Detach(context.Background(), true))
	})

	t.Run("not attached", func(t *testing.T) {
		r := commandtest.New().Fail("diskutil info -plist /Users/me/Work", notVolume)
		err := workImage(t, r).Detach(context.Background(), false)
		assert.ErrorIs(t, err, ErrNotAttached)
	})
}

func TestInfo(t *testing.T) {
	r := commandtest.New().On("hdiutil info -plist", fixture(t, "info.plist"))
	info, err := Info(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, "671.140.2", info.Framework)
	require.Len(t, info.Images, 1)
	img := info.Images[0]
	assert.True(t, img.Encrypted)
	assert.Equal(t, "/Users/me/Documents/work.sparsebundle", img.ImagePath)
	assert.Equal(t, []string{"/Users/me/Work"}, img.MountPoints())
	assert.Equal(t, "/dev/disk4", img.Entities[0].DevEntry)
}
