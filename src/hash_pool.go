package dexy

import (
	"io"
	"runtime"
	"sync"
)

type hashJob struct {
	r     io.Reader
	reply chan<- hashReply
}

type hashReply struct {
	sum string
	err error
}

// HashPool runs SHA-256 on a fixed set of goroutines kept apart from the
// traversal workers, so a large file occupies a hasher and not a walker.
type HashPool struct {
	jobs chan hashJob
	wg   sync.WaitGroup
	once sync.Once
}

// NewHashPool starts workers hashing goroutines. A non-positive count means
// one per CPU.
func NewHashPool(workers int) *HashPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &HashPool{jobs: make(chan hashJob)}
	for w := 0; w < workers; w++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				sum, err := Digest(job.r)
				job.reply <- hashReply{sum: sum, err: err}
			}
		}()
	}
	return p
}

// Sum hands r to a hashing goroutine and blocks until its digest is ready.
// It must not be called after Close.
func (p *HashPool) Sum(r io.Reader) (string, error) {
	reply := make(chan hashReply, 1)
	p.jobs <- hashJob{r: r, reply: reply}
	res := <-reply
	return res.sum, res.err
}

// Close stops the hashing goroutines once in-flight jobs are answered.
func (p *HashPool) Close() {
	p.once.Do(func() {
		close(p.jobs)
		p.wg.Wait()
	})
}
