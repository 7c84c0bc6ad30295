package dexy

import "sort"

func SortFilesByPath(files []ScannedFile) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	},
	)
}
