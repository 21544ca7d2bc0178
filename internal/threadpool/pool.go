// Package threadpool provides the process-wide pool of long-lived workers
// that parallel multiplications lease for the duration of one call.
//
// A caller asks for up to n handles with Request, which never blocks and may
// grant fewer (possibly none). Each granted handle names one idle worker; the
// caller hands it a task with Wake, joins it with Wait, and returns it with
// GiveBack once done. The free list is the only state shared between callers.
//
// Usage:
//
//	handles := pool.Request(limit - 1)
//	defer threadpool.GiveBackAll(pool, handles)
//	threadpool.Run(pool, handles, func(worker int) { ... })
//
//go:generate mockgen -source=pool.go -destination=mocks/mock_pool.go -package=mocks
package threadpool

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// Handle identifies one leased worker.
type Handle int

// Pool is the thread pool service used by the multiplication dispatcher.
type Pool interface {
	// Size returns the number of workers the pool manages.
	Size() int
	// Initialized reports whether the pool is ready to grant handles.
	Initialized() bool
	// Request leases up to max idle workers. It never blocks.
	Request(max int) []Handle
	// GiveBack returns a leased worker to the free list.
	GiveBack(h Handle)
	// Wake starts fn on the worker behind h.
	Wake(h Handle, fn func())
	// Wait blocks until the task started by Wake on h has finished. A panic
	// raised by the task is re-raised here.
	Wait(h Handle)
}

// worker is one long-lived goroutine. Slots are padded so that workers
// signalling on neighbouring slots do not share a cache line.
type worker struct {
	_    cpu.CacheLinePad
	work chan func()
	done chan any
	_    cpu.CacheLinePad
}

func (w *worker) loop() {
	for fn := range w.work {
		w.done <- runTask(fn)
	}
}

// runTask runs fn and returns the value it panicked with, if any.
func runTask(fn func()) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	fn()
	return nil
}

// WorkerPool is the standard Pool implementation.
type WorkerPool struct {
	workers []*worker

	mu     sync.Mutex
	free   []Handle
	leased []bool
	closed bool
}

// New starts a pool with size workers. A size of zero yields an initialized
// pool that never grants handles; a negative size uses GOMAXPROCS-1.
func New(size int) *WorkerPool {
	if size < 0 {
		size = max(runtime.GOMAXPROCS(0)-1, 0)
	}
	p := &WorkerPool{
		workers: make([]*worker, size),
		free:    make([]Handle, 0, size),
		leased:  make([]bool, size),
	}
	for i := range p.workers {
		w := &worker{work: make(chan func(), 1), done: make(chan any, 1)}
		p.workers[i] = w
		go w.loop()
	}
	// Hand out low handles first.
	for i := size - 1; i >= 0; i-- {
		p.free = append(p.free, Handle(i))
	}
	return p
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// Initialized reports whether the pool is open.
func (p *WorkerPool) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

// Request leases up to max idle workers.
func (p *WorkerPool) Request(max int) []Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || max <= 0 || len(p.free) == 0 {
		return nil
	}
	n := min(max, len(p.free))
	out := make([]Handle, n)
	for i := range out {
		h := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.leased[h] = true
		out[i] = h
	}
	return out
}

// GiveBack returns h to the free list. Returning a handle that is not leased
// panics.
func (p *WorkerPool) GiveBack(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(h) < 0 || int(h) >= len(p.leased) || !p.leased[h] {
		panic(fmt.Sprintf("threadpool: handle %d is not leased", h))
	}
	p.leased[h] = false
	p.free = append(p.free, h)
}

// Wake starts fn on the worker behind h.
func (p *WorkerPool) Wake(h Handle, fn func()) {
	p.workers[h].work <- fn
}

// Wait joins the task started on h and re-raises its panic.
func (p *WorkerPool) Wait(h Handle) {
	if r := <-p.workers[h].done; r != nil {
		panic(r)
	}
}

// Available returns the number of idle workers.
func (p *WorkerPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Close stops the workers once their current task finishes. Outstanding
// leases stay valid for Wait; further Request calls grant nothing.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, w := range p.workers {
		close(w.work)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// GiveBackAll returns every handle in hs to p.
func GiveBackAll(p Pool, hs []Handle) {
	for _, h := range hs {
		p.GiveBack(h)
	}
}

// Run calls fn(0) on the calling goroutine and fn(i) on handles[i-1] for
// i in 1..len(handles), and returns when all of them have finished. If any
// call panics, the first panic is re-raised after every worker has been
// joined, so handles are always safe to give back.
func Run(p Pool, handles []Handle, fn func(worker int)) {
	for i, h := range handles {
		p.Wake(h, func() { fn(i + 1) })
	}
	first := runTask(func() { fn(0) })
	for _, h := range handles {
		r := runTask(func() { p.Wait(h) })
		if first == nil {
			first = r
		}
	}
	if first != nil {
		panic(first)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Process-wide pool
// ─────────────────────────────────────────────────────────────────────────────

// uninitialized is the Pool in effect before InitGlobal or SetGlobal.
type uninitialized struct{}

func (uninitialized) Size() int            { return 0 }
func (uninitialized) Initialized() bool    { return false }
func (uninitialized) Request(int) []Handle { return nil }
func (uninitialized) GiveBack(h Handle)    { panic(fmt.Sprintf("threadpool: handle %d is not leased", h)) }
func (uninitialized) Wake(Handle, func())  { panic("threadpool: pool is not initialized") }
func (uninitialized) Wait(Handle)          { panic("threadpool: pool is not initialized") }

var (
	globalMu sync.RWMutex
	global   Pool = uninitialized{}
)

// Uninitialized returns a Pool that reports itself as not initialized and
// never grants handles.
func Uninitialized() Pool {
	return uninitialized{}
}

// Global returns the process-wide pool.
func Global() Pool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// InitGlobal starts a process-wide pool of size workers if none is installed
// yet and returns the pool in effect.
func InitGlobal(size int) Pool {
	globalMu.Lock()
	defer globalMu.Unlock()
	if !global.Initialized() {
		global = New(size)
	}
	return global
}

// SetGlobal installs p as the process-wide pool and returns a function that
// restores the previous one.
func SetGlobal(p Pool) (restore func()) {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := global
	global = p
	return func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		global = prev
	}
}
