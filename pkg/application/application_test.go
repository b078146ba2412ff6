package application

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const infoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
%s
</dict>
</plist>
`

func writeApp(t *testing.T, dir, name, keys string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Join(path, "Contents"), 0o755))
	if keys != "" {
		require.NoError(t, os.WriteFile(filepath.Join(path, "Contents", "Info.plist"), []byte(fmt.Sprintf(infoPlist, keys)), 0o644))
	}
	return path
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := writeApp(t, dir, "Safari.app", `
	<key>CFBundleName</key><string>Safari</string>
	<key>CFBundleIdentifier</key><string>com.apple.Safari</string>
	<key>CFBundleShortVersionString</key><string>17.1</string>
	<key>CFBundleVersion</key><string>19616.2.9</string>
	<key>LSMinimumSystemVersion</key><string>13.5</string>`)

	app, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "Safari", app.Name())
	assert.Equal(t, "com.apple.Safari", app.BundleID())
	assert.Equal(t, "19616.2.9", app.Version())
	assert.Equal(t, "13.5", app.Get("LSMinimumSystemVersion"))
	assert.Equal(t, "Safari 19616.2.9", app.String())
}

func TestVersionFallback(t *testing.T) {
	tests := []struct {
		name string
		info map[string]any
		want string
	}{
		{"bundle version", map[string]any{KeyVersion: "2", KeyShortVersion: "1.0"}, "2"},
		{"short version", map[string]any{KeyShortVersion: "1.0"}, "1.0"},
		{"none", map[string]any{}, UnknownVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &Application{Path: "/Applications/X.app", Info: tt.info}
			assert.Equal(t, tt.want, app.Version())
			assert.Equal(t, "X", app.Name())
		})
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "Missing.app"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "Folder"), 0o755))
	_, err = Open(filepath.Join(dir, "Folder"))
	assert.ErrorIs(t, err, ErrNotBundle)

	_, err = Open(writeApp(t, dir, "Empty.app", ""))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	writeApp(t, dir, "Zed.app", `<key>CFBundleName</key><string>Zed</string>`)
	writeApp(t, dir, "Broken.app", "")
	writeApp(t, filepath.Join(dir, "Utilities"), "Terminal.app", `<key>CFBundleName</key><string>Terminal</string>`)
	writeApp(t, filepath.Join(dir, "Utilities", "Deep"), "Hidden.app", `<key>CFBundleName</key><string>Hidden</string>`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), nil, 0o644))

	apps, err := Find(dir, DefaultDepth)
	require.NoError(t, err)
	var names []string
	for _, a := range apps {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"Terminal", "Zed"}, names)

	apps, err = Find(dir, 3)
	require.NoError(t, err)
	assert.Len(t, apps, 3)

	apps, err = Find(filepath.Join(dir, "nope"), DefaultDepth)
	require.NoError(t, err)
	assert.Empty(t, apps)
}
