package ps

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/blacktop/darwinist/internal/command/commandtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) List {
	t.Helper()
	data, err := os.ReadFile("testdata/ps_auxwww.txt")
	require.NoError(t, err)
	r := commandtest.New().On("ps auxwww", string(data))
	list, err := Load(context.Background(), r)
	require.NoError(t, err)
	return list
}

func pids(l List) []int {
	var out []int
	for _, p := range l {
		out = append(out, p.PID)
	}
	return out
}

func TestParse(t *testing.T) {
	list := load(t)
	require.Len(t, list, 5)

	safari := list[0]
	assert.Equal(t, "alice", safari.Username)
	assert.Equal(t, 1234, safari.PID)
	assert.InDelta(t, 12.5, safari.CPU, 0.001)
	assert.Equal(t, int64(301234), safari.RSS)
	assert.Equal(t, "??", safari.TTY)
	assert.Equal(t, "9:41AM", safari.Started)
	assert.Equal(t, "Safari", safari.Name())

	// inner spacing of the command survives
	assert.Equal(t, "/usr/local/bin/python3 -m http.server  8000", list[4].Command)
}

func TestSplitN(t *testing.T) {
	tests := []struct {
		line string
		n    int
		want []string
	}{
		{"a b c", 2, []string{"a", "b c"}},
		{"  a   b  ", 3, []string{"a", "b"}},
		{"a b  c  d", 3, []string{"a", "b", "c  d"}},
		{"a", 3, []string{"a"}},
		{"", 3, nil},
	}
	for _, tt := range tests {
		if got := splitN(tt.line, tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitN(%q, %d) = %q, want %q", tt.line, tt.n, got, tt.want)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []string{
		"alice abc 0.0 0.0 1 1 ?? S 9:41AM 0:00.00 cmd",
		"alice 1 x 0.0 1 1 ?? S 9:41AM 0:00.00 cmd",
		"alice 1 0.0 0.0",
	}
	for _, line := range tests {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) expected error", line)
		}
	}
	p, err := ParseLine("root 0 0.0 0.0 0 0 ?? R 1Jan70 0:00.00")
	require.NoError(t, err)
	assert.Empty(t, p.Command)
	assert.Empty(t, p.Name())
}

func TestSortBy(t *testing.T) {
	tests := []struct {
		field   string
		reverse bool
		want    []int
	}{
		{"pid", false, []int{1, 155, 1234, 2001, 2050}},
		{"cpu_pct", true, []int{1234, 155, 1, 2050, 2001}},
		{"rss", false, []int{2001, 1, 2050, 155, 1234}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			list := load(t)
			require.NoError(t, list.SortBy(tt.field, tt.reverse))
			assert.Equal(t, tt.want, pids(list))
		})
	}
	assert.Error(t, load(t).SortBy("nope", false))
}

func TestFilters(t *testing.T) {
	list := load(t)
	assert.Equal(t, []int{1234, 2001, 2050}, pids(list.FilterUser("alice")))
	assert.Empty(t, list.FilterUser("bob"))
	assert.Equal(t, []int{1}, pids(list.FilterCommand("launchd")))
	assert.Equal(t, []int{2001}, pids(list.FilterCommand("-zsh")))

	p, ok := list.FindPID(155)
	require.True(t, ok)
	assert.Equal(t, "WindowServer", p.Name())
	_, ok = list.FindPID(99999)
	assert.False(t, ok)
}
