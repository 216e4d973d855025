package extractor_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/delivery-notes/internal/extractor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scriptedModel struct {
	mu       sync.Mutex
	calls    int
	replies  []func() (string, error)
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (m *scriptedModel) Complete(ctx context.Context, system, user string, image []byte) (string, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}

	m.mu.Lock()
	i := m.calls
	m.calls++
	m.mu.Unlock()

	if i >= len(m.replies) {
		return m.replies[len(m.replies)-1]()
	}
	return m.replies[i]()
}

func reply(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func fail(err error) func() (string, error) {
	return func() (string, error) { return "", err }
}

const startReply = `{"role":"start","confidence":0.9,"fields":{"deliveryNoteNumber":"FS-1"}}`

func fastOptions() extractor.Options {
	return extractor.Options{
		MaxConcurrency: 4,
		Timeout:        time.Second,
		Retries:        3,
		RetryBase:      time.Millisecond,
		ModelKey:       "test",
	}
}

func request(page int) extractor.Request {
	return extractor.Request{DocumentID: "doc", ContentHash: "hash", Page: page, Text: "text"}
}

func TestClassify_Success(t *testing.T) {
	model := &scriptedModel{replies: []func() (string, error){reply(startReply)}}
	ex := extractor.New(model, nil, fastOptions(), testLogger())

	got, err := ex.Classify(context.Background(), request(3))
	if err != nil {
		t.Fatalf("Classify() failed: %v", err)
	}
	if got.Page != 3 || got.Role != extractor.RoleStart || got.Fields.DeliveryNoteNumber != "FS-1" {
		t.Errorf("Classify() = %+v", got)
	}
}

func TestClassify_RetriesTransient(t *testing.T) {
	model := &scriptedModel{replies: []func() (string, error){
		fail(fmt.Errorf("%w: status 429", extractor.ErrTransient)),
		fail(fmt.Errorf("%w: status 503", extractor.ErrTransient)),
		reply(startReply),
	}}
	ex := extractor.New(model, nil, fastOptions(), testLogger())

	got, err := ex.Classify(context.Background(), request(1))
	if err != nil {
		t.Fatalf("Classify() failed: %v", err)
	}
	if got.Role != extractor.RoleStart {
		t.Errorf("Role = %s, want start", got.Role)
	}
	if model.calls != 3 {
		t.Errorf("calls = %d, want 3", model.calls)
	}
}

func TestClassify_RetriesExhausted(t *testing.T) {
	model := &scriptedModel{replies: []func() (string, error){
		fail(fmt.Errorf("%w: status 500", extractor.ErrTransient)),
	}}
	ex := extractor.New(model, nil, fastOptions(), testLogger())

	got, err := ex.Classify(context.Background(), request(2))
	if !errors.Is(err, extractor.ErrPermanent) {
		t.Fatalf("Classify() error = %v, want ErrPermanent", err)
	}
	if errors.Is(err, extractor.ErrTransient) {
		t.Error("exhausted error should not wrap ErrTransient")
	}
	if got.Role != extractor.RoleUnknown || got.Page != 2 {
		t.Errorf("Classify() = %+v, want unknown page 2", got)
	}
	if model.calls != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", model.calls)
	}
}

func TestClassify_PermanentNotRetried(t *testing.T) {
	model := &scriptedModel{replies: []func() (string, error){
		fail(fmt.Errorf("%w: status 400", extractor.ErrPermanent)),
	}}
	ex := extractor.New(model, nil, fastOptions(), testLogger())

	if _, err := ex.Classify(context.Background(), request(1)); !errors.Is(err, extractor.ErrPermanent) {
		t.Fatalf("Classify() error = %v, want ErrPermanent", err)
	}
	if model.calls != 1 {
		t.Errorf("calls = %d, want 1", model.calls)
	}
}

func TestClassify_UnparseableIsPermanent(t *testing.T) {
	model := &scriptedModel{replies: []func() (string, error){reply("I cannot help with that.")}}
	ex := extractor.New(model, nil, fastOptions(), testLogger())

	if _, err := ex.Classify(context.Background(), request(1)); !errors.Is(err, extractor.ErrPermanent) {
		t.Fatalf("Classify() error = %v, want ErrPermanent", err)
	}
}

func TestClassify_TimeoutIsTransient(t *testing.T) {
	model := &scriptedModel{
		delay:   50 * time.Millisecond,
		replies: []func() (string, error){reply(startReply)},
	}
	opts := fastOptions()
	opts.Timeout = 5 * time.Millisecond
	opts.Retries = 1
	ex := extractor.New(model, nil, opts, testLogger())

	_, err := ex.Classify(context.Background(), request(1))
	if !errors.Is(err, extractor.ErrPermanent) {
		t.Fatalf("Classify() error = %v, want ErrPermanent after timed out retries", err)
	}
}

func TestClassify_Cancelled(t *testing.T) {
	model := &scriptedModel{
		delay:   time.Second,
		replies: []func() (string, error){reply(startReply)},
	}
	ex := extractor.New(model, nil, fastOptions(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := ex.Classify(ctx, request(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Classify() error = %v, want context.Canceled", err)
	}
}

func TestClassify_Unavailable(t *testing.T) {
	ex := extractor.New(nil, nil, fastOptions(), testLogger())

	if ex.Available() {
		t.Error("Available() = true, want false")
	}
	if _, err := ex.Classify(context.Background(), request(1)); !errors.Is(err, extractor.ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func TestClassify_ConcurrencyBound(t *testing.T) {
	model := &scriptedModel{
		delay:   20 * time.Millisecond,
		replies: []func() (string, error){reply(startReply)},
	}
	opts := fastOptions()
	opts.MaxConcurrency = 2
	ex := extractor.New(model, nil, opts, testLogger())

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Go(func() {
			ex.Classify(context.Background(), request(i))
		})
	}
	wg.Wait()

	if peak := model.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestClassify_UsesCache(t *testing.T) {
	model := &scriptedModel{replies: []func() (string, error){reply(startReply)}}
	cache := extractor.NewMemoryCache(16, time.Minute)
	ex := extractor.New(model, cache, fastOptions(), testLogger())

	for range 3 {
		if _, err := ex.Classify(context.Background(), request(5)); err != nil {
			t.Fatalf("Classify() failed: %v", err)
		}
	}
	if model.calls != 1 {
		t.Errorf("calls = %d, want 1", model.calls)
	}

	if _, ok := ex.Cached(context.Background(), "hash", 5); !ok {
		t.Error("Cached() = false after Classify, want true")
	}
	if _, ok := ex.Cached(context.Background(), "other-hash", 5); ok {
		t.Error("Cached() hit for different content hash")
	}
}

func TestCacheKey_Distinct(t *testing.T) {
	a := extractor.CacheKey("h", 1, "m")
	if a == extractor.CacheKey("h", 2, "m") || a == extractor.CacheKey("h", 1, "n") || a == extractor.CacheKey("g", 1, "m") {
		t.Error("CacheKey collided for distinct inputs")
	}
	if a != extractor.CacheKey("h", 1, "m") {
		t.Error("CacheKey not deterministic")
	}
}
