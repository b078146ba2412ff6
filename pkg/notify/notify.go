// Package notify posts desktop notifications.
package notify

import (
	"fmt"
	"strings"

	"github.com/gen2brain/beeep"
)

// AppName is shown as the sender where the platform supports it.
const AppName = "darwinist"

var send = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

func init() {
	beeep.AppName = AppName
}

// Title joins a title and an optional subtitle the way they are displayed.
func Title(title, subtitle string) string {
	title, subtitle = strings.TrimSpace(title), strings.TrimSpace(subtitle)
	switch {
	case subtitle == "":
		return title
	case title == "":
		return subtitle
	}
	return title + ": " + subtitle
}

// Notify posts a notification. The notification center has no subtitle
// line outside of NSUserNotification so it is joined to the title.
func Notify(title, subtitle, text string) error {
	t := Title(title, subtitle)
	if t == "" && strings.TrimSpace(text) == "" {
		return fmt.Errorf("notification needs a title or text")
	}
	if err := send(t, text); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
