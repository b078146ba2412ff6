package colors

import (
	"testing"

	"github.com/fatih/color"
)

func TestInit_ForceOn(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = true
	forceOn := true
	Init(&forceOn)

	if !Enabled() {
		t.Error("expected colors enabled when Init(true)")
	}
}

func TestInit_ForceOff(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	forceOff := false
	Init(&forceOff)

	if Enabled() {
		t.Error("expected colors disabled when Init(false)")
	}
}

func TestInit_CLICOLOR(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	t.Setenv("CLICOLOR", "0")
	color.NoColor = false
	Init(nil)
	if Enabled() {
		t.Error("CLICOLOR=0 should disable colors")
	}
}

func TestPlainWhenDisabled(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()
	color.NoColor = true

	tests := []struct {
		got, want string
	}{
		{Status("Online"), "Online"},
		{Status("DISCHARGING"), "DISCHARGING"},
		{Status(""), ""},
		{Percent(95, "95%"), "95%"},
		{Key("Name"), "Name"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestStatusColored(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()
	color.NoColor = false

	if got := Status("Online"); got == "Online" {
		t.Error("expected escape codes around Online")
	}
	if Status("Online") == Status("Offline") {
		t.Error("online and offline should differ")
	}
}
