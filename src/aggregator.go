package dexy

import "sync"

// Aggregator is the content-addressed index built up during a scan. It only
// grows; Record is safe for concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	files ScanResult
	count int
}

func NewAggregator() *Aggregator {
	return &Aggregator{files: make(ScanResult)}
}

// Record appends file to the list kept for hash.
func (a *Aggregator) Record(hash string, file ScannedFile) {
	a.mu.Lock()
	a.files[hash] = append(a.files[hash], file)
	a.count++
	a.mu.Unlock()
}

// Len returns the number of files recorded so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// Result returns a copy of the index with every list sorted by path, so the
// same tree always serializes the same way.
func (a *Aggregator) Result() ScanResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := make(ScanResult, len(a.files))
	for hash, files := range a.files {
		list := make([]ScannedFile, len(files))
		copy(list, files)
		SortFilesByPath(list)
		result[hash] = list
	}
	return result
}
