package run

import (
	"sync"
	"time"

	"github.com/pthm-cable/prospect/generators"
)

// result is the outcome of one event, filled by a worker.
type result struct {
	Event  generators.Event
	Err    error
	Sample time.Duration
}

// workChunk represents a range of event indices for a worker to process.
type workChunk struct {
	start, end int
}

// workerPool generates events on persistent goroutines. Every worker owns
// its generator; event i always draws from random stream i, so output does
// not depend on the number of workers.
type workerPool struct {
	gens       []generators.Generator
	seed       uint64
	numWorkers int

	// results of the batch in flight, indexed from its first event
	results []result
	base    int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(gens []generators.Generator, seed uint64) *workerPool {
	return &workerPool{
		gens:       gens,
		seed:       seed,
		numWorkers: len(gens),
	}
}

// start launches persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(id int) {
	defer p.wg.Done()
	gen := p.gens[id]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk := <-p.workChan:
			for i := chunk.start; i < chunk.end; i++ {
				rng := generators.NewRand(p.seed, uint64(i))
				t0 := time.Now()
				ev, err := gen.Generate(rng)
				p.results[i-p.base] = result{Event: ev, Err: err, Sample: time.Since(t0)}
			}
			p.doneChan <- struct{}{}
		}
	}
}

// generate produces events [start, start+n) and returns them in order.
// The returned slice is reused by the next call.
func (p *workerPool) generate(start, n int) []result {
	if n <= 0 {
		return nil
	}
	if cap(p.results) < n {
		p.results = make([]result, n)
	}
	p.results = p.results[:n]
	p.base = start

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	sent := 0
	for lo := start; lo < start+n; lo += chunkSize {
		hi := min(lo+chunkSize, start+n)
		p.workChan <- workChunk{start: lo, end: hi}
		sent++
	}
	for i := 0; i < sent; i++ {
		<-p.doneChan
	}
	return p.results
}
