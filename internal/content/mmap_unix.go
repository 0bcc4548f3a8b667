//go:build unix

package content

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapAcquire memory-maps path read-only and returns a release function
// that unmaps it. The caller must call release exactly once, and only
// after it is done reading the returned slice.
func mmapAcquire(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}

	release := func() { _ = unix.Munmap(data) }
	return data, release, nil
}
