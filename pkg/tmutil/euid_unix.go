//go:build unix

package tmutil

import "golang.org/x/sys/unix"

var geteuid = unix.Geteuid
