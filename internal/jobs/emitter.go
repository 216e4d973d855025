package jobs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/extractor"
)

// fileState tracks one ingested file while its pages are classified.
// pending and next are guarded by the emitter lock.
type fileState struct {
	index     int
	name      string
	pageCount int
	pending   map[int]pageResult
	next      int
	doc       *documents.Document
	data      []byte
}

type pageResult struct {
	page           int
	classification extractor.Classification
	warning        error
}

// emitter serialises job events. Events are queued without bound so the job
// never blocks on a slow reader, and are handed to the reader in emission
// order by a single pump goroutine.
type emitter struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue  []Event
	closed bool

	jobID      uuid.UUID
	totalFiles int
	totalPages int
	completed  int
	progress   int
	warnings   []string

	out     chan Event
	release chan struct{}
	once    sync.Once
}

func newEmitter(jobID uuid.UUID, totalFiles int) *emitter {
	e := &emitter{
		jobID:      jobID,
		totalFiles: totalFiles,
		out:        make(chan Event),
		release:    make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.pump()
	return e
}

func (e *emitter) pump() {
	defer close(e.out)

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		ev := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		select {
		case e.out <- ev:
		case <-e.release:
			return
		}
	}
}

// events returns the ordered event channel. It closes after the terminal
// event has been read.
func (e *emitter) events() <-chan Event {
	return e.out
}

// detach stops delivery. Queued and future events are dropped.
func (e *emitter) detach() {
	e.once.Do(func() { close(e.release) })
}

// push appends ev stamped with the job id and current progress. Callers
// hold e.mu.
func (e *emitter) push(ev Event) {
	if e.closed {
		return
	}
	ev.JobID = e.jobID
	if ev.TotalFiles == 0 {
		ev.TotalFiles = e.totalFiles
	}
	ev.Progress = e.progress
	e.queue = append(e.queue, ev)
	e.cond.Signal()
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.push(ev)
}

// warn emits a warning event and records its message for the final summary.
func (e *emitter) warn(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.warnings = append(e.warnings, ev.Message)
	ev.Status = StatusWarning
	e.push(ev)
}

func (e *emitter) setTotalPages(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totalPages = n
}

// pageDone records a classified page. Results arrive in completion order;
// page events leave in page order, each preceded by its warning if any.
func (e *emitter) pageDone(f *fileState, r pageResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f.pending[r.page] = r
	for {
		next, ok := f.pending[f.next]
		if !ok {
			return
		}
		delete(f.pending, f.next)
		f.next++

		e.completed++
		if e.totalPages > 0 {
			e.progress = max(e.progress, min(100, e.completed*100/e.totalPages))
		}

		if next.warning != nil {
			msg := next.warning.Error()
			e.warnings = append(e.warnings, msg)
			e.push(Event{
				Status:      StatusWarning,
				CurrentFile: f.name,
				FileIndex:   f.index,
				Page:        next.page,
				TotalPages:  f.pageCount,
				Message:     msg,
			})
		}

		e.push(Event{
			Status:      StatusProcessingFile,
			CurrentFile: f.name,
			FileIndex:   f.index,
			Page:        next.page,
			TotalPages:  f.pageCount,
		})
	}
}

// snapshot returns the current progress and warning messages.
func (e *emitter) snapshot() (int, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress, append([]string(nil), e.warnings...)
}

// finish emits the terminal event and closes the stream. Successful jobs
// report 100; failed jobs keep the last progress value.
func (e *emitter) finish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Status != StatusError {
		e.progress = 100
	}
	e.push(ev)
	e.closed = true
	e.cond.Signal()
}
