package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/allocations"
	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/extractor"
	"github.com/JaimeStill/delivery-notes/internal/jobs"
	"github.com/JaimeStill/delivery-notes/internal/migrations/migrationstest"
	"github.com/JaimeStill/delivery-notes/internal/notes"
	"github.com/JaimeStill/delivery-notes/internal/pdf/pdftest"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/pagination"
)

var pagePrompt = regexp.MustCompile(`Classify page (\d+)`)

// pageModel answers by page number. Pages in starts are starts, pages in
// fail fail permanently, everything else is a continuation.
type pageModel struct {
	starts map[int]bool
	fail   map[int]bool
	block  bool
	delay  func(page int) time.Duration

	mu    sync.Mutex
	calls int
}

func (m *pageModel) Complete(ctx context.Context, system, user string, image []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	match := pagePrompt.FindStringSubmatch(user)
	if match == nil {
		return "", fmt.Errorf("%w: no page in prompt", extractor.ErrPermanent)
	}
	page, _ := strconv.Atoi(match[1])

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.delay != nil {
		select {
		case <-time.After(m.delay(page)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.fail[page] {
		return "", fmt.Errorf("%w: model rejected page", extractor.ErrPermanent)
	}
	if m.starts[page] {
		return fmt.Sprintf(`{"role":"start","confidence":0.9,"fields":{"deliveryNoteNumber":"DN-%d","companyName":"Acme"}}`, page), nil
	}
	return `{"role":"continuation","confidence":0.8,"fields":{}}`, nil
}

type fixture struct {
	jobs  jobs.System
	notes notes.System
	docs  documents.System
}

func setup(t *testing.T, model extractor.Model, opts jobs.Options) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db := migrationstest.DB(t)
	store, err := blobs.NewFilesystem(filepath.Join(t.TempDir(), "blobs"), logger)
	if err != nil {
		t.Fatalf("NewFilesystem() failed: %v", err)
	}

	registry := allocations.New(db, logger)
	docs := documents.New(db, store, registry, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	ns := notes.New(db, registry, docs, store, logger)

	ex := extractor.New(model, extractor.NoCache{}, extractor.Options{
		Mode:           config.ModeText,
		MaxConcurrency: 4,
		Timeout:        time.Second,
		Retries:        1,
		RetryBase:      time.Millisecond,
	}, logger)

	return fixture{
		jobs:  jobs.New(db, docs, ns, ex, opts, logger),
		notes: ns,
		docs:  docs,
	}
}

func collect(t *testing.T, run *jobs.Run) []jobs.Event {
	t.Helper()
	var events []jobs.Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-run.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("job did not finish; got %d events", len(events))
		}
	}
}

func upload(name string, pages int) documents.Upload {
	return documents.Upload{Filename: name, Data: pdftest.Build(pages)}
}

// pageSets returns each note's pages ordered by first page.
func pageSets(list []notes.Note) []string {
	sorted := slices.Clone(list)
	slices.SortFunc(sorted, func(a, b notes.Note) int {
		return a.PageNumbers[0] - b.PageNumbers[0]
	})

	out := make([]string, len(sorted))
	for i, n := range sorted {
		out[i] = fmt.Sprint(n.PageNumbers)
	}
	return out
}

func TestRun_CleanSplit(t *testing.T) {
	f := setup(t, &pageModel{starts: map[int]bool{1: true, 4: true}}, jobs.Options{FileConcurrency: 2})

	run, err := f.jobs.Start(context.Background(), []documents.Upload{upload("scan.pdf", 6)})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	events := collect(t, run)

	first := events[0]
	if first.Status != jobs.StatusAnalyzing || first.TotalFiles != 1 || first.Progress != 0 {
		t.Errorf("first event = %+v, want analyzing with 1 file at 0", first)
	}

	last := events[len(events)-1]
	if last.Status != jobs.StatusCompleted || last.Progress != 100 || last.NotesCreated != 2 {
		t.Fatalf("terminal event = %+v, want completed with 2 notes", last)
	}

	list, err := f.notes.List(context.Background(), notes.Filters{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	got := strings.Join(pageSets(list), " ")
	if got != "[1 2 3] [4 5 6]" {
		t.Errorf("note pages = %s, want [1 2 3] [4 5 6]", got)
	}
	for _, n := range list {
		if n.Origin != notes.OriginAI {
			t.Errorf("note %s origin = %s, want ai", n.ID, n.Origin)
		}
		if n.CompanyName != "Acme" {
			t.Errorf("note %s companyName = %q, want Acme", n.ID, n.CompanyName)
		}
	}

	job, err := f.jobs.Find(context.Background(), run.Job.ID)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if job.Status != jobs.StatusCompleted || job.NotesCreated != 2 || job.TotalPages != 6 || job.FinishedAt == nil {
		t.Errorf("job record = %+v", job)
	}
}

func TestRun_PageFailureIsWarning(t *testing.T) {
	model := &pageModel{
		starts: map[int]bool{1: true, 4: true},
		fail:   map[int]bool{5: true},
	}
	f := setup(t, model, jobs.Options{FileConcurrency: 2})

	run, err := f.jobs.Start(context.Background(), []documents.Upload{upload("scan.pdf", 6)})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	events := collect(t, run)

	var pageWarning *jobs.Event
	for i, ev := range events[:len(events)-1] {
		if ev.Status == jobs.StatusWarning {
			pageWarning = &events[i]
		}
	}
	if pageWarning == nil || pageWarning.Page != 5 || !strings.Contains(pageWarning.Message, "page 5") {
		t.Errorf("page warning = %+v, want page 5", pageWarning)
	}

	last := events[len(events)-1]
	if last.Status != jobs.StatusWarning || !strings.Contains(last.Message, "page 5") {
		t.Errorf("terminal event = %+v, want warning naming page 5", last)
	}

	list, _ := f.notes.List(context.Background(), notes.Filters{})
	if got := strings.Join(pageSets(list), " "); got != "[1 2 3] [4 5 6]" {
		t.Errorf("note pages = %s, want [1 2 3] [4 5 6]", got)
	}
}

func TestRun_ProgressAndOrdering(t *testing.T) {
	model := &pageModel{
		starts: map[int]bool{1: true},
		delay: func(page int) time.Duration {
			return time.Duration((7-page)%4) * 3 * time.Millisecond
		},
	}
	f := setup(t, model, jobs.Options{FileConcurrency: 2})

	uploads := []documents.Upload{upload("a.pdf", 6), upload("b.pdf", 3), upload("c.pdf", 2)}
	run, err := f.jobs.Start(context.Background(), uploads)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	events := collect(t, run)

	progress := 0
	lastPage := map[int]int{}
	var announced []int
	for _, ev := range events {
		if ev.Progress < progress {
			t.Fatalf("progress decreased from %d to %d", progress, ev.Progress)
		}
		progress = ev.Progress

		if ev.Status != jobs.StatusProcessingFile {
			continue
		}
		if ev.Page == 0 {
			announced = append(announced, ev.FileIndex)
			continue
		}
		if ev.Page != lastPage[ev.FileIndex]+1 {
			t.Errorf("file %d page %d after page %d", ev.FileIndex, ev.Page, lastPage[ev.FileIndex])
		}
		lastPage[ev.FileIndex] = ev.Page
	}

	if fmt.Sprint(announced) != "[1 2 3]" {
		t.Errorf("files announced in order %v, want [1 2 3]", announced)
	}
	if lastPage[1] != 6 || lastPage[2] != 3 || lastPage[3] != 2 {
		t.Errorf("last pages = %v, want 6, 3, 2", lastPage)
	}

	last := events[len(events)-1]
	if last.Status != jobs.StatusCompleted || last.NotesCreated != 3 {
		t.Errorf("terminal event = %+v, want completed with 3 notes", last)
	}
}

func TestRun_CorruptFileSkipped(t *testing.T) {
	f := setup(t, &pageModel{starts: map[int]bool{1: true}}, jobs.Options{FileConcurrency: 2})

	uploads := []documents.Upload{
		{Filename: "broken.pdf", Data: pdftest.Corrupt()},
		upload("good.pdf", 2),
	}
	run, err := f.jobs.Start(context.Background(), uploads)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	events := collect(t, run)

	var skipped bool
	for _, ev := range events {
		if ev.Status == jobs.StatusWarning && ev.FileIndex == 1 && strings.Contains(ev.Message, "broken.pdf") {
			skipped = true
		}
	}
	if !skipped {
		t.Error("no warning for broken.pdf")
	}

	last := events[len(events)-1]
	if last.Status != jobs.StatusWarning || last.NotesCreated != 1 {
		t.Errorf("terminal event = %+v, want warning with 1 note", last)
	}

	page, _ := f.docs.List(context.Background(), pagination.PageRequest{Page: 1, PageSize: 10}, documents.Filters{})
	if page.Total != 1 {
		t.Errorf("documents stored = %d, want 1", page.Total)
	}
}

func TestRun_NoNotesIsError(t *testing.T) {
	f := setup(t, &pageModel{}, jobs.Options{FileConcurrency: 2})

	run, err := f.jobs.Start(context.Background(), []documents.Upload{{Filename: "broken.pdf", Data: pdftest.Corrupt()}})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	events := collect(t, run)

	last := events[len(events)-1]
	if last.Status != jobs.StatusError {
		t.Errorf("terminal event = %+v, want error", last)
	}
}

func TestRun_Cancelled(t *testing.T) {
	model := &pageModel{block: true}
	f := setup(t, model, jobs.Options{FileConcurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	run, err := f.jobs.Start(ctx, []documents.Upload{upload("scan.pdf", 4)})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	go func() {
		for {
			model.mu.Lock()
			calls := model.calls
			model.mu.Unlock()
			if calls > 0 {
				cancel()
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	events := collect(t, run)
	last := events[len(events)-1]
	if last.Status != jobs.StatusError || last.Message != "cancelled" {
		t.Errorf("terminal event = %+v, want error cancelled", last)
	}

	list, _ := f.notes.List(context.Background(), notes.Filters{})
	if len(list) != 0 {
		t.Errorf("notes created after cancel = %d, want 0", len(list))
	}

	job, err := f.jobs.Find(context.Background(), run.Job.ID)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if job.Status != jobs.StatusError || job.Message == nil || *job.Message != "cancelled" {
		t.Errorf("job record = %+v", job)
	}
}

func TestRun_Timeout(t *testing.T) {
	f := setup(t, &pageModel{block: true}, jobs.Options{FileConcurrency: 1, Timeout: 50 * time.Millisecond})

	run, err := f.jobs.Start(context.Background(), []documents.Upload{upload("scan.pdf", 2)})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	events := collect(t, run)
	last := events[len(events)-1]
	if last.Status != jobs.StatusError || last.Message != "timeout" {
		t.Errorf("terminal event = %+v, want error timeout", last)
	}
}

func TestRun_RecordFollowsStatus(t *testing.T) {
	model := &pageModel{block: true}
	f := setup(t, model, jobs.Options{FileConcurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run, err := f.jobs.Start(ctx, []documents.Upload{upload("scan.pdf", 3)})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if run.Job.Status != jobs.StatusQueued {
		t.Errorf("initial status = %s, want %s", run.Job.Status, jobs.StatusQueued)
	}

	deadline := time.Now().Add(5 * time.Second)
	var job *jobs.Job
	for {
		job, err = f.jobs.Find(context.Background(), run.Job.ID)
		if err != nil {
			t.Fatalf("Find() failed: %v", err)
		}
		if job.Status == jobs.StatusProcessingFile {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job record status = %s, want %s while running", job.Status, jobs.StatusProcessingFile)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if job.TotalPages != 3 {
		t.Errorf("running TotalPages = %d, want 3", job.TotalPages)
	}
	if job.FinishedAt != nil {
		t.Errorf("running FinishedAt = %v, want nil", job.FinishedAt)
	}

	cancel()
	collect(t, run)

	job, err = f.jobs.Find(context.Background(), run.Job.ID)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if job.Status != jobs.StatusError || job.FinishedAt == nil {
		t.Errorf("final record = %+v, want finished error", job)
	}
}

func TestStart_Unavailable(t *testing.T) {
	f := setup(t, nil, jobs.Options{})

	if f.jobs.Available() {
		t.Error("Available() = true without a model")
	}
	_, err := f.jobs.Start(context.Background(), []documents.Upload{upload("scan.pdf", 1)})
	if !errors.Is(err, extractor.ErrUnavailable) {
		t.Errorf("Start() error = %v, want ErrUnavailable", err)
	}
	if got := jobs.MapHTTPStatus(err); got != 503 {
		t.Errorf("MapHTTPStatus() = %d, want 503", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	f := setup(t, &pageModel{}, jobs.Options{})

	_, err := f.jobs.Find(context.Background(), uuid.New())
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}
