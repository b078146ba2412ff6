package output

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type volume struct {
	Name string   `json:"name"`
	Size int64    `json:"size"`
	Tags []string `json:"tags,omitempty"`
}

var volumes = []volume{
	{Name: "Macintosh HD", Size: 500, Tags: []string{"boot"}},
	{Name: "Data", Size: 250},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(&buf, FormatTable, "")
	require.NoError(t, err)
	assert.False(t, p.Structured())

	err = p.Print(volumes, func(w io.Writer) error {
		for _, v := range volumes {
			fmt.Fprintln(w, v.Name)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Macintosh HD\nData\n", buf.String())

	assert.Error(t, p.Print(volumes, nil))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(&buf, FormatJSON, "")
	require.NoError(t, err)
	require.NoError(t, p.Print(volumes[1], nil))
	assert.JSONEq(t, `{"name":"Data","size":250}`, buf.String())
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(&buf, FormatYAML, "")
	require.NoError(t, err)
	require.NoError(t, p.Print(volumes[0], nil))
	assert.YAMLEq(t, "name: Macintosh HD\nsize: 500\ntags: [boot]\n", buf.String())
}

func TestJQ(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(&buf, FormatTable, ".[] | select(.size > 300) | .name")
	require.NoError(t, err)
	assert.True(t, p.Structured())
	require.NoError(t, p.Print(volumes, nil))
	assert.Equal(t, "\"Macintosh HD\"\n", buf.String())

	_, err = New(&buf, FormatJSON, ".[")
	assert.Error(t, err)

	p, err = New(&buf, FormatJSON, ".name | error")
	require.NoError(t, err)
	assert.Error(t, p.Print(volumes[0], nil))
}

type usage struct {
	Size    int64   `json:"size"`
	Blocks  uint64  `json:"blocks"`
	Percent float64 `json:"percent"`
}

func TestPrintLargeNumbers(t *testing.T) {
	u := usage{Size: 499418034176, Blocks: 18446744073709551615, Percent: 42.5}

	var buf bytes.Buffer
	p, err := New(&buf, FormatYAML, "")
	require.NoError(t, err)
	require.NoError(t, p.Print(u, nil))
	assert.Contains(t, buf.String(), "size: 499418034176\n")
	assert.Contains(t, buf.String(), "percent: 42.5\n")

	buf.Reset()
	p, err = New(&buf, FormatJSON, "")
	require.NoError(t, err)
	require.NoError(t, p.Print(u, nil))
	assert.Contains(t, buf.String(), `"blocks": 18446744073709551615`)
	assert.Contains(t, buf.String(), `"size": 499418034176`)

	buf.Reset()
	p, err = New(&buf, FormatJSON, ".size + 1")
	require.NoError(t, err)
	require.NoError(t, p.Print(u, nil))
	assert.Equal(t, "499418034177\n", buf.String())
}
