package dexy

import (
	"errors"
	"fmt"
)

// NoTimestamp is stored in a FileAttributes date field when the filesystem
// does not expose that timestamp.
const NoTimestamp int64 = -1

type FileType int

const (
	FileTypeFile FileType = iota
	FileTypeDirectory
	FileTypeSymLink
)

func (t FileType) String() string {
	switch t {
	case FileTypeSymLink:
		return "SymLink"
	case FileTypeDirectory:
		return "Directory"
	default:
		return "File"
	}
}

func (t FileType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *FileType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "SymLink":
		*t = FileTypeSymLink
	case "Directory":
		*t = FileTypeDirectory
	case "File":
		*t = FileTypeFile
	default:
		return fmt.Errorf("unknown file type %q", text)
	}
	return nil
}

// FileAttributes is metadata captured once, at the moment the file was hashed.
type FileAttributes struct {
	Size         int64    `json:"size"`
	CreatedDate  int64    `json:"created_date"`
	AccessedDate int64    `json:"accessed_date"`
	EditDate     int64    `json:"edit_date"`
	FileType     FileType `json:"file_type"`
}

// ScannedFile is one successfully hashed file.
type ScannedFile struct {
	Hash       string          `json:"hash"`
	Path       string          `json:"path"`
	Attributes *FileAttributes `json:"attributes"`
}

// ScanResult maps a hex SHA-256 digest to every file that produced it.
// A list longer than one is a set of duplicates.
type ScanResult map[string][]ScannedFile

type SkipReason string

const (
	SkipHidden        SkipReason = "hidden path"
	SkipBrokenSymlink SkipReason = "broken symlink"
	SkipSymlinkDir    SkipReason = "symlink to directory"
	SkipIrregular     SkipReason = "not a regular file"
	SkipEmpty         SkipReason = "empty file"
	SkipStat          SkipReason = "cannot stat"
	SkipOpen          SkipReason = "cannot open"
	SkipRead          SkipReason = "cannot generate hash"
	SkipListing       SkipReason = "cannot list directory"
)

// Skip describes one entry that was left out of the result. It never aborts
// the directory or the scan it belongs to.
type Skip struct {
	Path   string
	Reason SkipReason
	Err    error
}

func newSkip(path string, reason SkipReason, err error) *Skip {
	return &Skip{Path: path, Reason: reason, Err: err}
}

func (s *Skip) Error() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %s: %v", s.Reason, s.Path, s.Err)
	}
	return fmt.Sprintf("%s: %s", s.Reason, s.Path)
}

func (s *Skip) Unwrap() error {
	return s.Err
}

// Failed reports whether the skip was caused by an I/O failure rather than
// by policy (hidden, empty, link handling).
func (s *Skip) Failed() bool {
	switch s.Reason {
	case SkipStat, SkipOpen, SkipRead, SkipListing:
		return true
	}
	return false
}

var (
	ErrNoStartDirectories = errors.New("no start directory specified")
	ErrInvalidWorkerCount = errors.New("worker count must be a positive integer")
	ErrInvalidName        = errors.New("scan name must be a non-empty file name")
	ErrUnsupportedOption  = errors.New("option is not supported")
)

type ScanOptions struct {
	// Workers is the number of directory workers; zero means one per CPU.
	Workers int
	// HashWorkers is the number of hashing goroutines; zero means one per CPU.
	HashWorkers        int
	IgnoreEmpty        bool
	IncludeHidden      bool
	LoadFileAttributes bool
}
