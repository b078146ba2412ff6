//go:build unix

package mount

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func statfs(path string) (*Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, fmt.Errorf("failed to statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize)
	return newUsage(uint64(st.Blocks)*bsize, uint64(st.Bfree)*bsize, uint64(st.Bavail)*bsize), nil
}

func access(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
