//go:build windows

package dexy

import (
	"io/fs"
	"syscall"
	"time"
)

func createdTime(_ string, info fs.FileInfo) int64 {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return NoTimestamp
	}
	return unixSeconds(time.Unix(0, data.CreationTime.Nanoseconds()))
}

func accessedTime(info fs.FileInfo) int64 {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return NoTimestamp
	}
	return unixSeconds(time.Unix(0, data.LastAccessTime.Nanoseconds()))
}
