package dexy

import (
	"io/fs"
	"time"
)

// NewFileAttributes builds the attribute record for path from its own
// (unfollowed) metadata. Timestamps the platform cannot supply are stored as
// NoTimestamp.
func NewFileAttributes(path string, info fs.FileInfo) *FileAttributes {
	return &FileAttributes{
		Size:         info.Size(),
		CreatedDate:  createdTime(path, info),
		AccessedDate: accessedTime(info),
		EditDate:     unixSeconds(info.ModTime()),
		FileType:     fileTypeOf(info.Mode()),
	}
}

func fileTypeOf(mode fs.FileMode) FileType {
	switch {
	case mode&fs.ModeSymlink != 0:
		return FileTypeSymLink
	case mode.IsDir():
		return FileTypeDirectory
	default:
		return FileTypeFile
	}
}

// unixSeconds keeps NoTimestamp unambiguous: times before the epoch are
// reported as unavailable.
func unixSeconds(t time.Time) int64 {
	if t.IsZero() || t.Unix() < 0 {
		return NoTimestamp
	}
	return t.Unix()
}
