package dexy

import "sort"

// DuplicateGroup is one digest shared by more than one file.
type DuplicateGroup struct {
	Hash  string
	Files []ScannedFile
	// Reclaimable is the size of every copy but one, or zero when the scan
	// did not load file attributes.
	Reclaimable int64
}

// Summary totals a ScanResult.
type Summary struct {
	Files           int
	Digests         int
	DuplicateGroups int
	DuplicateFiles  int
	Reclaimable     int64
}

func groupSize(files []ScannedFile) int64 {
	for _, f := range files {
		if f.Attributes != nil {
			return f.Attributes.Size
		}
	}
	return 0
}

// Duplicates lists the digests held by more than one file, largest
// reclaimable size first, then by digest.
func Duplicates(result ScanResult) []DuplicateGroup {
	groups := []DuplicateGroup{}
	for hash, files := range result {
		if len(files) < 2 {
			continue
		}
		list := make([]ScannedFile, len(files))
		copy(list, files)
		SortFilesByPath(list)
		groups = append(groups, DuplicateGroup{
			Hash:        hash,
			Files:       list,
			Reclaimable: groupSize(files) * int64(len(files)-1),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Reclaimable != groups[j].Reclaimable {
			return groups[i].Reclaimable > groups[j].Reclaimable
		}
		return groups[i].Hash < groups[j].Hash
	})
	return groups
}

func Summarize(result ScanResult) Summary {
	s := Summary{Digests: len(result)}
	for _, files := range result {
		s.Files += len(files)
		if len(files) > 1 {
			s.DuplicateGroups++
			s.DuplicateFiles += len(files)
			s.Reclaimable += groupSize(files) * int64(len(files)-1)
		}
	}
	return s
}
