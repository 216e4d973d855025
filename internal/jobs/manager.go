package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	orchestration "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	wf "github.com/JaimeStill/go-agents-orchestration/pkg/workflows"

	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/extractor"
	"github.com/JaimeStill/delivery-notes/internal/metrics"
	"github.com/JaimeStill/delivery-notes/internal/notes"
	"github.com/JaimeStill/delivery-notes/internal/pdf"
	"github.com/JaimeStill/delivery-notes/internal/sanitize"
	"github.com/JaimeStill/delivery-notes/internal/segmentation"
)

// Options bound job execution.
type Options struct {
	Timeout         time.Duration
	FileConcurrency int
}

type manager struct {
	documents documents.System
	notes     notes.System
	extractor *extractor.Extractor
	store     *store
	opts      Options
	logger    *slog.Logger
}

// New creates the job system.
func New(db *sql.DB, docs documents.System, ns notes.System, ex *extractor.Extractor, opts Options, logger *slog.Logger) System {
	if opts.FileConcurrency < 1 {
		opts.FileConcurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Minute
	}
	return &manager{
		documents: docs,
		notes:     ns,
		extractor: ex,
		store:     &store{db: db},
		opts:      opts,
		logger:    logger.With("system", "jobs"),
	}
}

func (m *manager) Handler(limits documents.Limits) *Handler {
	return NewHandler(m, m.logger, limits)
}

func (m *manager) Available() bool {
	return m.extractor.Available()
}

func (m *manager) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	return m.store.find(ctx, id)
}

func (m *manager) Recover(ctx context.Context) error {
	n, err := m.store.interrupt(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		m.logger.Warn("unfinished jobs marked interrupted", "count", n)
	}
	return nil
}

func (m *manager) Start(ctx context.Context, uploads []documents.Upload) (*Run, error) {
	if !m.extractor.Available() {
		return nil, extractor.ErrUnavailable
	}
	if len(uploads) == 0 {
		return nil, documents.ErrNoFiles
	}

	job := &Job{
		ID:         uuid.New(),
		Status:     StatusQueued,
		TotalFiles: len(uploads),
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.store.create(ctx, job); err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithTimeoutCause(ctx, m.opts.Timeout, ErrTimeout)
	em := newEmitter(job.ID, len(uploads))

	snapshot := *job
	go func() {
		defer cancel()
		m.execute(jobCtx, job, uploads, em)
	}()

	return &Run{Job: &snapshot, em: em}, nil
}

// execute owns job until it returns.
func (m *manager) execute(ctx context.Context, job *Job, uploads []documents.Upload, em *emitter) {
	logger := m.logger.With("job_id", job.ID)
	metrics.JobStarted()
	start := time.Now()

	logger.Info("job started", "files", len(uploads))
	em.emit(Event{Status: StatusAnalyzing})
	m.advance(ctx, job, StatusAnalyzing, em, logger)

	files, err := m.ingest(ctx, uploads, em)
	if err != nil {
		m.finish(ctx, job, em, 0, err, logger, start)
		return
	}

	for _, f := range files {
		job.TotalPages += f.pageCount
	}
	em.setTotalPages(job.TotalPages)

	created, err := m.processFiles(ctx, job, files, em, logger)
	m.finish(ctx, job, em, created, err, logger, start)
}

// ingest stores every upload as a document in submission order. Files the
// PDF engine rejects are skipped with a warning; storage failures end the
// job.
func (m *manager) ingest(ctx context.Context, uploads []documents.Upload, em *emitter) ([]*fileState, error) {
	files := make([]*fileState, 0, len(uploads))

	for i, u := range uploads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := m.documents.Create(ctx, documents.CreateCommand{Filename: u.Filename, Data: u.Data})
		switch {
		case errors.Is(err, pdf.ErrCorrupt), errors.Is(err, pdf.ErrEncrypted), errors.Is(err, documents.ErrUnsupportedType):
			em.warn(Event{
				CurrentFile: sanitize.Filename(u.Filename),
				FileIndex:   i + 1,
				Message:     fmt.Sprintf("%s skipped: %v", sanitize.Filename(u.Filename), err),
			})
			continue
		case err != nil:
			return nil, fmt.Errorf("ingest %s: %w", sanitize.Filename(u.Filename), err)
		}

		files = append(files, &fileState{
			index:     i + 1,
			name:      doc.OriginalFilename,
			pageCount: doc.PageCount,
			pending:   make(map[int]pageResult),
			next:      1,
			doc:       doc,
			data:      u.Data,
		})
	}
	return files, nil
}

// processFiles runs at most FileConcurrency files at a time. Files are
// announced in submission order. The first failing file cancels the rest.
func (m *manager) processFiles(ctx context.Context, job *Job, files []*fileState, em *emitter, logger *slog.Logger) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(m.opts.FileConcurrency))

	counts := make([]int, len(files))
	for i, f := range files {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		em.emit(Event{
			Status:      StatusProcessingFile,
			CurrentFile: f.name,
			FileIndex:   f.index,
			TotalPages:  f.pageCount,
		})
		m.advance(ctx, job, StatusProcessingFile, em, logger)

		g.Go(func() error {
			defer sem.Release(1)
			n, err := m.processFile(gctx, f, em, logger)
			counts[i] = n
			return err
		})
	}

	err := g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}

	if err == nil {
		err = ctx.Err()
	}
	return total, err
}

// processFile classifies every page of f, plans its notes and inserts them
// in one allocation.
func (m *manager) processFile(ctx context.Context, f *fileState, em *emitter, logger *slog.Logger) (int, error) {
	h, err := pdf.Open(f.data)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", f.name, err)
	}
	defer h.Close()

	pages := make([]int, f.pageCount)
	for i := range pages {
		pages[i] = i + 1
	}

	processor := func(ctx context.Context, page int) (pageResult, error) {
		r := m.classifyPage(ctx, f, h, page)
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
		metrics.PageClassified()
		em.pageDone(f, r)
		return r, nil
	}

	result, err := wf.ProcessParallel(ctx, parallelConfig(), pages, processor, nil)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, fmt.Errorf("classify %s: %w", f.name, err)
	}

	classifications := make([]extractor.Classification, 0, len(result.Results))
	for _, r := range result.Results {
		classifications = append(classifications, r.classification)
	}

	segments := segmentation.Plan(f.pageCount, classifications)
	cmds := make([]notes.CreateCommand, len(segments))
	for i, s := range segments {
		cmds[i] = noteCommand(f.doc, s)
	}

	created, err := m.notes.CreateBatch(ctx, f.doc.ID, cmds)
	if err != nil {
		return 0, fmt.Errorf("insert notes for %s: %w", f.name, err)
	}

	logger.Info("file processed",
		"document_id", f.doc.ID,
		"file", f.name,
		"pages", f.pageCount,
		"notes", len(created),
	)
	return len(created), nil
}

// classifyPage never fails: problems become an unknown page with a warning.
func (m *manager) classifyPage(ctx context.Context, f *fileState, h *pdf.Handle, page int) pageResult {
	if c, ok := m.extractor.Cached(ctx, f.doc.ContentHash, page); ok {
		return pageResult{page: page, classification: c}
	}

	req := extractor.Request{
		DocumentID:  f.doc.ID.String(),
		ContentHash: f.doc.ContentHash,
		Page:        page,
	}

	var err error
	switch m.extractor.Mode() {
	case config.ModeText:
		req.Text, err = h.ExtractText(page)
	default:
		req.Image, err = h.RenderPage(page, m.extractor.DPI())
	}
	if err != nil {
		return pageResult{
			page:           page,
			classification: extractor.Unknown(page),
			warning:        fmt.Errorf("page %d of %s could not be read: %w", page, f.name, err),
		}
	}

	c, err := m.extractor.Classify(ctx, req)
	if err != nil {
		return pageResult{
			page:           page,
			classification: extractor.Unknown(page),
			warning:        fmt.Errorf("page %d of %s: %w", page, f.name, err),
		}
	}
	return pageResult{page: page, classification: c}
}

func noteCommand(doc *documents.Document, s segmentation.Segment) notes.CreateCommand {
	name := s.DisplayName
	if sanitize.Text(name) == "" {
		name = segmentation.DisplayNamePrefix + fmt.Sprint(s.StartPage())
	}

	optional := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}

	return notes.CreateCommand{
		DocumentID:         doc.ID,
		DisplayName:        name,
		CompanyName:        s.Fields.CompanyName,
		DeliveryDate:       optional(s.Fields.DeliveryDate),
		DeliveryNoteNumber: optional(s.Fields.DeliveryNoteNumber),
		ShippingID:         optional(s.Fields.ShippingID),
		CustomerNumber:     optional(s.Fields.CustomerNumber),
		PageNumbers:        s.Pages,
		Origin:             notes.OriginAI,
	}
}

// advance persists a status transition so the job record follows the run.
// It is only called from the goroutine that owns job.
func (m *manager) advance(ctx context.Context, job *Job, status Status, em *emitter, logger *slog.Logger) {
	job.Status = status
	job.Progress, _ = em.snapshot()

	if err := m.store.advance(context.WithoutCancel(ctx), job); err != nil {
		logger.Warn("failed to persist job status", "status", status, "error", err)
	}
}

// finish derives the terminal status, persists the record and emits the
// terminal event.
func (m *manager) finish(ctx context.Context, job *Job, em *emitter, created int, err error, logger *slog.Logger, start time.Time) {
	progress, warnings := em.snapshot()

	var message string
	switch {
	case ctx.Err() != nil:
		job.Status = StatusError
		message = ErrCancelled.Error()
		if errors.Is(context.Cause(ctx), ErrTimeout) {
			message = ErrTimeout.Error()
		}
	case err != nil:
		job.Status = StatusError
		message = err.Error()
	case created == 0:
		job.Status = StatusError
		message = "no delivery notes were produced"
		if len(warnings) > 0 {
			message += ": " + strings.Join(warnings, "; ")
		}
	case len(warnings) > 0:
		job.Status = StatusWarning
		message = fmt.Sprintf("%d delivery notes created with %d warnings: %s",
			created, len(warnings), strings.Join(warnings, "; "))
	default:
		job.Status = StatusCompleted
		message = fmt.Sprintf("%d delivery notes created", created)
	}

	finished := time.Now().UTC()
	job.Progress = progress
	if job.Status != StatusError {
		job.Progress = 100
	}
	job.NotesCreated = created
	job.Warnings = len(warnings)
	job.Message = &message
	job.FinishedAt = &finished

	if err := m.store.finish(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("failed to persist job", "error", err)
	}

	em.finish(Event{
		Status:       job.Status,
		Message:      message,
		NotesCreated: created,
	})

	metrics.JobFinished(string(job.Status))
	logger.Info("job finished",
		"status", job.Status,
		"notes", created,
		"warnings", len(warnings),
		"message", message,
		"duration", time.Since(start),
	)
}

func parallelConfig() orchestration.ParallelConfig {
	cfg := orchestration.DefaultParallelConfig()
	cfg.Observer = "noop"
	return cfg
}
