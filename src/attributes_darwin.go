//go:build darwin

package dexy

import (
	"io/fs"
	"syscall"
	"time"
)

func createdTime(_ string, info fs.FileInfo) int64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return NoTimestamp
	}
	return unixSeconds(time.Unix(stat.Birthtimespec.Unix()))
}

func accessedTime(info fs.FileInfo) int64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return NoTimestamp
	}
	return unixSeconds(time.Unix(stat.Atimespec.Unix()))
}
