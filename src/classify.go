package dexy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// readDirBatch bounds how many entries are held in memory per ReadDir call.
const readDirBatch = 1000

// Candidate is a leaf entry that passed every policy check and is ready to
// be hashed.
type Candidate struct {
	Path string
	// Info is the entry's own metadata; links are not followed.
	Info fs.FileInfo
	// Size is the length of the content that will be hashed, which for a
	// symlink is the length of its target.
	Size int64
}

// Entries is the classification of one directory's immediate children.
type Entries struct {
	Dirs    []string
	Files   []Candidate
	Skipped []*Skip
}

func (e *Entries) skip(path string, reason SkipReason, err error) {
	e.Skipped = append(e.Skipped, newSkip(path, reason, err))
}

// Classifier splits a directory listing into subdirectories to queue and
// files to hash.
type Classifier struct {
	IncludeHidden bool
	IgnoreEmpty   bool
}

// IsHidden reports whether name carries the hidden-entry marker.
func IsHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// Classify lists dir. It only fails when dir cannot be opened; problems
// with individual entries, or a listing cut short, are returned as skips.
func (c *Classifier) Classify(dir string) (*Entries, error) {
	fd, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	defer fd.Close()

	out := &Entries{}
	for {
		batch, err := fd.ReadDir(readDirBatch)
		for _, entry := range batch {
			c.classifyEntry(dir, entry, out)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				out.skip(dir, SkipListing, err)
			}
			break
		}
	}
	return out, nil
}

func (c *Classifier) classifyEntry(dir string, entry fs.DirEntry, out *Entries) {
	name := entry.Name()
	fullPath := filepath.Join(dir, name)

	if !c.IncludeHidden && IsHidden(name) {
		out.skip(fullPath, SkipHidden, nil)
		return
	}

	if entry.IsDir() {
		out.Dirs = append(out.Dirs, fullPath)
		return
	}

	info, err := entry.Info()
	if err != nil {
		out.skip(fullPath, SkipStat, err)
		return
	}

	mode, size := info.Mode(), info.Size()
	if mode&fs.ModeSymlink != 0 {
		target, err := os.Stat(fullPath)
		if err != nil {
			out.skip(fullPath, SkipBrokenSymlink, err)
			return
		}
		if target.IsDir() {
			out.skip(fullPath, SkipSymlinkDir, nil)
			return
		}
		mode, size = target.Mode(), target.Size()
	}

	if !mode.IsRegular() {
		out.skip(fullPath, SkipIrregular, nil)
		return
	}

	if c.IgnoreEmpty && size == 0 {
		out.skip(fullPath, SkipEmpty, nil)
		return
	}

	out.Files = append(out.Files, Candidate{Path: fullPath, Info: info, Size: size})
}
