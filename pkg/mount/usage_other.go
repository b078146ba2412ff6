//go:build !unix

package mount

import "github.com/blacktop/darwinist/internal/command"

func statfs(string) (*Usage, error) {
	return nil, command.ErrUnsupportedOS
}

func access(string) bool { return false }
