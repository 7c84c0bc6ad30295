//go:build !linux && !darwin && !windows

package dexy

import "io/fs"

func createdTime(_ string, _ fs.FileInfo) int64 {
	return NoTimestamp
}

func accessedTime(_ fs.FileInfo) int64 {
	return NoTimestamp
}
