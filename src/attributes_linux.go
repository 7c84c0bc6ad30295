//go:build linux

package dexy

import (
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// createdTime asks statx for the birth time; older kernels and some
// filesystems do not record one.
func createdTime(path string, _ fs.FileInfo) int64 {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return NoTimestamp
	}
	return unixSeconds(time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)))
}

func accessedTime(info fs.FileInfo) int64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return NoTimestamp
	}
	return unixSeconds(time.Unix(stat.Atim.Unix()))
}
