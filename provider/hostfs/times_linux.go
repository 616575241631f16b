//go:build linux

package hostfs

import (
	"golang.org/x/sys/unix"

	"github.com/wippyai/fsproxy/provider"
)

// timestamps reads birth, modification and access times with statx. Kernels
// or filesystems without a birth time report the status change time.
func timestamps(path string) (provider.FileTimeStampRaw, error) {
	var stx unix.Statx_t
	mask := unix.STATX_BTIME | unix.STATX_MTIME | unix.STATX_ATIME | unix.STATX_CTIME
	if err := unix.Statx(unix.AT_FDCWD, path, 0, mask, &stx); err != nil {
		return provider.FileTimeStampRaw{}, err
	}
	created := stx.Ctime.Sec
	if stx.Mask&unix.STATX_BTIME != 0 {
		created = stx.Btime.Sec
	}
	return provider.FileTimeStampRaw{
		Created:  created,
		Modified: stx.Mtime.Sec,
		Accessed: stx.Atime.Sec,
	}, nil
}
