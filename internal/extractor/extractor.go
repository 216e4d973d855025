// Package extractor classifies document pages with a vision or language
// model. It bounds concurrent calls across the process, applies a per-call
// timeout, retries transient failures with exponential backoff and caches
// results by source content, page and model configuration.
package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/metrics"
)

// Options tune an Extractor.
type Options struct {
	Mode           string
	DPI            int
	MaxConcurrency int
	Timeout        time.Duration
	Retries        int
	RetryBase      time.Duration
	// ModelKey identifies the model configuration for caching.
	ModelKey string
}

// Extractor turns pages into classifications.
type Extractor struct {
	model     Model
	cache     Cache
	sem       *semaphore.Weighted
	opts      Options
	modelHash string
	logger    *slog.Logger
}

// New wraps model. A nil model yields an unavailable extractor.
func New(model Model, cache Cache, opts Options, logger *slog.Logger) *Extractor {
	if cache == nil {
		cache = NoCache{}
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeImage
	}

	sum := sha256.Sum256([]byte(opts.ModelKey + "|" + opts.Mode + "|" + strconv.Itoa(opts.DPI) + "|" + PromptVersion))

	return &Extractor{
		model:     model,
		cache:     cache,
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrency)),
		opts:      opts,
		modelHash: hex.EncodeToString(sum[:]),
		logger:    logger.With("system", "extractor"),
	}
}

// FromConfig builds the model backend described by cfg. When cfg names no
// endpoint or agent config the returned extractor is unavailable.
func FromConfig(cfg *config.ExtractorConfig, cache Cache, logger *slog.Logger) (*Extractor, error) {
	opts := Options{
		Mode:           cfg.Mode,
		DPI:            cfg.DPI,
		MaxConcurrency: cfg.MaxConcurrency,
		Timeout:        cfg.TimeoutDuration(),
		Retries:        cfg.Retries,
		RetryBase:      cfg.RetryBaseDuration(),
	}

	if !cfg.Available() {
		logger.Warn("extractor not configured, batch processing disabled")
		return New(nil, cache, opts, logger), nil
	}

	var model Model
	switch cfg.Backend {
	case config.ExtractorAgent:
		m, err := NewAgentModel(cfg.AgentConfig)
		if err != nil {
			return nil, err
		}
		model = m
		opts.ModelKey = strings.Join([]string{cfg.Backend, cfg.AgentConfig}, "|")
	default:
		model = NewOpenAIModel(cfg.Endpoint, cfg.APIKey, cfg.Model)
		opts.ModelKey = strings.Join([]string{cfg.Backend, cfg.Endpoint, cfg.Model}, "|")
	}

	return New(model, cache, opts, logger), nil
}

// Available reports whether a model backend is configured.
func (e *Extractor) Available() bool {
	return e.model != nil
}

// Mode returns the payload mode, image or text.
func (e *Extractor) Mode() string {
	return e.opts.Mode
}

// DPI returns the render resolution used in image mode.
func (e *Extractor) DPI() int {
	return e.opts.DPI
}

// Cached returns a cached classification without calling the model. Job
// processing consults it before rendering a page.
func (e *Extractor) Cached(ctx context.Context, contentHash string, page int) (Classification, bool) {
	c, ok := e.cache.Get(ctx, CacheKey(contentHash, page, e.modelHash))
	if ok {
		c.Page = page
	}
	return c, ok
}

// Classify classifies one page. Transient failures are retried; once
// retries are exhausted, or on any other failure, the error wraps
// ErrPermanent. Cancellation of ctx is returned as is.
func (e *Extractor) Classify(ctx context.Context, req Request) (Classification, error) {
	if e.model == nil {
		return Unknown(req.Page), ErrUnavailable
	}

	if c, ok := e.Cached(ctx, req.ContentHash, req.Page); ok {
		return c, nil
	}

	var lastErr error
	for attempt := 0; attempt <= e.opts.Retries; attempt++ {
		if attempt > 0 {
			delay := e.opts.RetryBase << (attempt - 1)
			e.logger.Debug("retrying page classification",
				"document_id", req.DocumentID,
				"page", req.Page,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			if err := sleep(ctx, delay); err != nil {
				return Unknown(req.Page), err
			}
		}

		reply, err := e.call(ctx, req)
		if err == nil {
			c, err := ParseResponse(reply)
			if err != nil {
				metrics.ObserveExtractorCall(metrics.OutcomePermanent, 0)
				return Unknown(req.Page), fmt.Errorf("%w: page %d: %v", ErrPermanent, req.Page, err)
			}
			c.Page = req.Page
			e.cache.Set(ctx, CacheKey(req.ContentHash, req.Page, e.modelHash), c)
			return c, nil
		}

		if ctx.Err() != nil {
			return Unknown(req.Page), ctx.Err()
		}
		if !errors.Is(err, ErrTransient) {
			return Unknown(req.Page), err
		}
		lastErr = err
	}

	return Unknown(req.Page), fmt.Errorf("%w: page %d: retries exhausted: %v", ErrPermanent, req.Page, lastErr)
}

func (e *Extractor) call(ctx context.Context, req Request) (string, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer e.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := e.model.Complete(callCtx, systemPrompt, userPrompt(req), req.Image)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.ObserveExtractorCall(metrics.OutcomeSuccess, elapsed)
		return reply, nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTransient):
		err = fmt.Errorf("%w: call timed out after %v: %v", ErrTransient, e.opts.Timeout, err)
	case !errors.Is(err, ErrTransient) && !errors.Is(err, ErrPermanent):
		err = fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	if errors.Is(err, ErrTransient) {
		metrics.ObserveExtractorCall(metrics.OutcomeTransient, elapsed)
	} else {
		metrics.ObserveExtractorCall(metrics.OutcomePermanent, elapsed)
	}
	return "", err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
