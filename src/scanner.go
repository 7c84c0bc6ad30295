package dexy

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var ErrScannerReused = errors.New("scanner has already run")

// Scanner hashes every regular file under a set of directories. Create one
// with NewScanner and call Run once.
type Scanner struct {
	options    ScanOptions
	classifier *Classifier
	queue      *WorkQueue
	results    *Aggregator
	progress   *Progress
	hasher     *HashPool
	started    atomic.Bool
}

func NewScanner(options ScanOptions) *Scanner {
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	return &Scanner{
		options: options,
		classifier: &Classifier{
			IncludeHidden: options.IncludeHidden,
			IgnoreEmpty:   options.IgnoreEmpty,
		},
		queue:    NewWorkQueue(options.Workers),
		results:  NewAggregator(),
		progress: NewProgress(options.Workers),
	}
}

// Progress can be polled while Run is in progress.
func (s *Scanner) Progress() *Progress {
	return s.progress
}

// Run scans roots, which should already be canonical, until no worker has
// anything left to do. There is no cancellation: failures on individual
// directories and files are logged through the context's zerolog logger and
// skipped.
func (s *Scanner) Run(ctx context.Context, roots []string) (ScanResult, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrScannerReused
	}
	logger := zerolog.Ctx(ctx)

	s.hasher = NewHashPool(s.options.HashWorkers)
	defer s.hasher.Close()

	s.progress.Discovered(len(roots))
	s.queue.Push(roots...)
	logger.Info().
		Strs("roots", roots).
		Int("workers", s.options.Workers).
		Msg("Starting scan")

	var wg sync.WaitGroup
	for w := 0; w < s.options.Workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id)
		}(w)
	}
	wg.Wait()

	result := s.results.Result()
	logger.Info().
		Int("files", s.results.Len()).
		Int("digests", len(result)).
		Msg("Scan finished")
	return result, nil
}

func (s *Scanner) worker(ctx context.Context, id int) {
	logger := zerolog.Ctx(ctx).With().Int("worker", id+1).Logger()

	for {
		s.progress.SetStatus(id, StatusIdle)
		dir, ok := s.queue.Next()
		if !ok {
			break
		}
		s.progress.SetStatus(id, "processing dir: "+dir)
		s.processDirectory(&logger, id, dir)
		s.progress.DirectoryDone()
	}

	s.progress.SetStatus(id, StatusClosing)
	logger.Debug().Msg("Worker closing")
}

// processDirectory lists dir, publishes its subdirectories and then hashes
// its files. Subdirectories are queued before the first file is opened.
func (s *Scanner) processDirectory(logger *zerolog.Logger, id int, dir string) {
	entries, err := s.classifier.Classify(dir)
	if err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Skipped directory")
		s.progress.Failed()
		return
	}

	for _, skip := range entries.Skipped {
		s.report(logger, skip)
	}
	s.progress.Discovered(len(entries.Dirs))
	s.queue.Push(entries.Dirs...)

	for _, candidate := range entries.Files {
		s.progress.SetStatus(id, "scanning file: "+candidate.Path)
		file, skip := s.hashFile(candidate)
		if skip != nil {
			s.report(logger, skip)
			continue
		}
		s.results.Record(file.Hash, file)
		s.progress.FileHashed(candidate.Size)
		logger.Debug().Str("path", file.Path).Str("hash", file.Hash).Msg("Hashed file")
	}
}

func (s *Scanner) hashFile(candidate Candidate) (ScannedFile, *Skip) {
	fd, err := os.Open(candidate.Path)
	if err != nil {
		return ScannedFile{}, newSkip(candidate.Path, SkipOpen, err)
	}
	defer fd.Close()

	sum, err := s.hasher.Sum(fd)
	if err != nil {
		return ScannedFile{}, newSkip(candidate.Path, SkipRead, err)
	}

	file := ScannedFile{Hash: sum, Path: candidate.Path}
	if s.options.LoadFileAttributes {
		file.Attributes = NewFileAttributes(candidate.Path, candidate.Info)
	}
	return file, nil
}

func (s *Scanner) report(logger *zerolog.Logger, skip *Skip) {
	switch {
	case skip.Failed():
		s.progress.Failed()
		logger.Error().Err(skip.Err).Str("path", skip.Path).Msgf("Skipped: %s", skip.Reason)
	case skip.Reason == SkipEmpty:
		s.progress.Skipped()
		logger.Debug().Str("path", skip.Path).Msg("Skipped empty file")
	default:
		s.progress.Skipped()
		logger.Warn().Str("path", skip.Path).Msgf("Skipped %s", skip.Reason)
	}
}
