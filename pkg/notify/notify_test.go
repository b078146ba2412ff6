package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		title, subtitle, want string
	}{
		{"Backup", "", "Backup"},
		{"Backup", "Finished", "Backup: Finished"},
		{"", "Finished", "Finished"},
		{" Backup ", " ", "Backup"},
	}
	for _, tt := range tests {
		if got := Title(tt.title, tt.subtitle); got != tt.want {
			t.Errorf("Title(%q, %q) = %q, want %q", tt.title, tt.subtitle, got, tt.want)
		}
	}
}

func TestNotify(t *testing.T) {
	orig := send
	t.Cleanup(func() { send = orig })

	var gotTitle, gotText string
	send = func(title, message string) error {
		gotTitle, gotText = title, message
		return nil
	}
	require.NoError(t, Notify("Time Machine", "Backup", "Completed in 4m"))
	assert.Equal(t, "Time Machine: Backup", gotTitle)
	assert.Equal(t, "Completed in 4m", gotText)

	assert.Error(t, Notify("", "", " "))

	boom := errors.New("dbus unavailable")
	send = func(string, string) error { return boom }
	assert.ErrorIs(t, Notify("a", "", "b"), boom)
}
