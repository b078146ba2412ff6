package homebrew

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const list = "wget\ngit\n\njq\n"

func TestInstalled(t *testing.T) {
	r := commandtest.New().On("brew list --formula -1", list)
	names, err := New(r, "/opt/homebrew/Cellar").Installed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "jq", "wget"}, names)
}

func TestVersions(t *testing.T) {
	cellar := t.TempDir()
	for _, d := range []string{"1.10.0", "1.9.2_1", "HEAD-abc1234", "1.9.2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(cellar, "wget", d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(cellar, "wget", ".DS_Store"), nil, 0o644))

	r := commandtest.New().On("brew --cellar", cellar+"\n")
	b := New(r, "")
	pkg, err := b.Versions(context.Background(), "wget")
	require.NoError(t, err)

	var got []string
	for _, v := range pkg.Versions {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"1.9.2", "1.9.2_1", "1.10.0", "HEAD-abc1234"}, got)
	assert.Equal(t, 1, pkg.Versions[1].Revision)
	assert.Equal(t, filepath.Join(cellar, "wget", "1.10.0"), pkg.Versions[2].Path)

	latest, ok := pkg.Latest()
	assert.True(t, ok)
	assert.Equal(t, "HEAD-abc1234", latest.Raw)

	_, err = b.Versions(context.Background(), "curl")
	assert.ErrorIs(t, err, os.ErrNotExist)
	// the cellar is looked up once
	assert.Len(t, r.Calls(), 1)
}

func TestInstall(t *testing.T) {
	ctx := context.Background()
	r := commandtest.New().
		On("brew list --formula -1", list).
		On("brew install htop", "").
		On("brew install --force wget", "").
		Fail("brew install nope", &command.ExecError{
			Name:     "brew",
			Args:     []string{"install", "nope"},
			ExitCode: 1,
			Stderr:   []byte(`Error: No available formula with the name "nope".`),
		})
	b := New(r, "/opt/homebrew/Cellar")

	require.NoError(t, b.Install(ctx, "wget", false))
	require.NoError(t, b.Install(ctx, "htop", false))
	require.NoError(t, b.Install(ctx, "wget", true))
	assert.ErrorIs(t, b.Install(ctx, "nope", false), ErrUnknownFormula)

	var lines []string
	for _, c := range r.Calls() {
		lines = append(lines, c.Line())
	}
	assert.Equal(t, []string{
		"brew list --formula -1",
		"brew list --formula -1",
		"brew install htop",
		"brew install --force wget",
		"brew list --formula -1",
		"brew install nope",
	}, lines)
}

func TestMaintenance(t *testing.T) {
	ctx := context.Background()
	r := commandtest.New().
		On("brew update", "Already up-to-date.\n").
		On("brew upgrade", "").
		On("brew cleanup", "Removing: /opt/homebrew/Cellar/wget/1.9.2... (9 files, 4.2MB)\n")
	b := New(r, "/opt/homebrew/Cellar")

	out, err := b.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Already up-to-date.\n", string(out))
	_, err = b.Upgrade(ctx)
	require.NoError(t, err)
	out, err = b.Cleanup(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Removing")
}
