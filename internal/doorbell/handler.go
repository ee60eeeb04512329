package doorbell

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/doorbell-core/internal/dedup"
	"github.com/nerrad567/doorbell-core/internal/event"
)

// DedupMode selects how the duplicate merge relates to the write that
// triggered it.
type DedupMode string

const (
	// DedupSync runs the merge before HandleEventWrite returns.
	DedupSync DedupMode = "sync"

	// DedupAsync runs the merge on a tracked goroutine; see Handler.Shutdown.
	DedupAsync DedupMode = "async"
)

// asyncDedupTimeout bounds a background merge once the triggering write has returned.
const asyncDedupTimeout = 30 * time.Second

// Deduplicator merges events sharing a correlation tag.
type Deduplicator interface {
	Deduplicate(ctx context.Context, doorbellID, tag string) (dedup.Result, error)
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Result describes what HandleEventWrite did.
type Result struct {
	// Event is the parsed event, nil when the write was ignored before parsing
	// or failed to parse.
	Event *event.Event

	// Ignored explains why the write was a no-op, empty otherwise.
	Ignored string

	// Outcome is the router outcome.
	Outcome Outcome

	// Dedup is the merge result in sync mode, nil otherwise.
	Dedup *dedup.Result
}

// Stats are cumulative handler counters.
type Stats struct {
	Processed uint64 `json:"processed"`
	Ignored   uint64 `json:"ignored"`
	Failed    uint64 `json:"failed"`
	Merged    uint64 `json:"merged"`
}

// Handler is the entry point for event writes.
//
// Thread Safety: HandleEventWrite is safe for concurrent use.
type Handler struct {
	router   *Router
	dedup    Deduplicator
	mode     DedupMode
	recorder Recorder
	logger   Logger

	// mu guards draining; inflight.Add only happens under mu while !draining.
	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup

	processed atomic.Uint64
	ignored   atomic.Uint64
	failed    atomic.Uint64
	merged    atomic.Uint64
}

// NewHandler creates a handler. An empty mode means DedupSync.
func NewHandler(router *Router, dd Deduplicator, mode DedupMode) *Handler {
	if mode == "" {
		mode = DedupSync
	}
	return &Handler{
		router:   router,
		dedup:    dd,
		mode:     mode,
		recorder: noopRecorder{},
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the handler.
func (h *Handler) SetLogger(logger Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// SetRecorder sets the telemetry recorder for the handler.
func (h *Handler) SetRecorder(r Recorder) {
	if r != nil {
		h.recorder = r
	}
}

// HandleEventWrite processes one write to doorbells/{doorbellID}/events/{timestamp}.
// prior is the value before the write and next the value after; nil means
// absent.
//
// Deletions, unchanged rewrites and records without a usable payload are not
// routed. An unknown event type is returned as event.ErrUnknownEventType with
// no state written. Any record carrying a payload.tag is merged with its tag
// group afterwards; in DedupSync mode a merge error is joined to the routing
// error.
func (h *Handler) HandleEventWrite(ctx context.Context, doorbellID, timestamp string, prior, next any) (Result, error) {
	start := time.Now()
	typeName := rawType(next)
	label := typeLabel(typeName)

	if next == nil {
		h.logger.Debug("event deleted", "doorbell_id", doorbellID, "timestamp", timestamp)
		return h.ignore(doorbellID, label, "deleted", start), nil
	}
	if prior != nil && reflect.DeepEqual(prior, next) {
		return h.ignore(doorbellID, label, "unchanged", start), nil
	}

	var (
		res      Result
		routeErr error
	)
	ev, err := event.Parse(doorbellID, timestamp, next)
	switch {
	case errors.Is(err, event.ErrMissingPayload):
		h.logger.Info("event has no usable payload, ignoring",
			"doorbell_id", doorbellID, "timestamp", timestamp, "error", err)
		res.Ignored = "missing payload"

	case err != nil:
		routeErr = err

	default:
		h.logger.Info("received event",
			"doorbell_id", doorbellID,
			"timestamp", timestamp,
			"type", ev.Type,
			"update", prior != nil,
		)
		res.Event = ev
		res.Outcome, routeErr = h.router.Route(ctx, ev)
		if res.Outcome.Dispatched {
			h.recorder.RecordDispatch(doorbellID, string(ev.Type), res.Outcome.Report, routeErr)
		}
	}
	if routeErr != nil {
		h.logger.Error("routing event failed",
			"doorbell_id", doorbellID, "timestamp", timestamp, "type", typeName, "error", routeErr)
	}

	dedupErr := h.runDedup(ctx, doorbellID, event.Tag(next), &res)

	if err := errors.Join(routeErr, dedupErr); err != nil {
		h.failed.Add(1)
		h.recorder.RecordEvent(doorbellID, label, StatusFailed, time.Since(start))
		return res, err
	}
	if res.Ignored != "" {
		h.ignored.Add(1)
		h.recorder.RecordEvent(doorbellID, label, StatusIgnored, time.Since(start))
		return res, nil
	}
	h.processed.Add(1)
	h.recorder.RecordEvent(doorbellID, label, StatusProcessed, time.Since(start))
	return res, nil
}

// runDedup merges the tag group of the written event according to the mode.
func (h *Handler) runDedup(ctx context.Context, doorbellID, tag string, res *Result) error {
	if tag == "" || h.dedup == nil {
		return nil
	}

	if h.mode == DedupAsync && h.track() {
		go func() {
			defer h.inflight.Done()
			bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncDedupTimeout)
			defer cancel()
			if _, err := h.deduplicate(bg, doorbellID, tag); err != nil {
				h.logger.Error("background dedup failed", "doorbell_id", doorbellID, "tag", tag, "error", err)
			}
		}()
		return nil
	}

	dr, err := h.deduplicate(ctx, doorbellID, tag)
	if err != nil {
		h.logger.Error("dedup failed", "doorbell_id", doorbellID, "tag", tag, "error", err)
		return fmt.Errorf("deduplicating tag %q: %w", tag, err)
	}
	res.Dedup = &dr
	return nil
}

func (h *Handler) deduplicate(ctx context.Context, doorbellID, tag string) (dedup.Result, error) {
	dr, err := h.dedup.Deduplicate(ctx, doorbellID, tag)
	if dr.Changed() {
		h.merged.Add(1)
	}
	h.recorder.RecordDedup(doorbellID, tag, dr, err)
	return dr, err
}

func (h *Handler) ignore(doorbellID, label, reason string, start time.Time) Result {
	h.ignored.Add(1)
	h.recorder.RecordEvent(doorbellID, label, StatusIgnored, time.Since(start))
	return Result{Ignored: reason}
}

// track registers a background merge. It reports false once Shutdown has
// been called; the merge then runs inline.
func (h *Handler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining {
		return false
	}
	h.inflight.Add(1)
	return true
}

// Shutdown stops scheduling background merges and waits for the ones in
// flight. Writes handled after Shutdown merge synchronously.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()
	return h.Wait(ctx)
}

// Wait blocks until every background merge has finished or ctx is done.
// It must not race with HandleEventWrite; use Shutdown for that.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the handler counters.
func (h *Handler) Stats() Stats {
	return Stats{
		Processed: h.processed.Load(),
		Ignored:   h.ignored.Load(),
		Failed:    h.failed.Load(),
		Merged:    h.merged.Load(),
	}
}

// Recorder type labels for records without a recognised type.
const (
	TypeLabelNone    = "none"
	TypeLabelUnknown = "unknown"
)

// typeLabel maps a raw type to the bounded label set passed to the recorder.
func typeLabel(typeName string) string {
	switch {
	case typeName == "":
		return TypeLabelNone
	case !event.Type(typeName).Valid():
		return TypeLabelUnknown
	}
	return typeName
}

// rawType returns the type string of a raw record, recognised or not.
func rawType(v any) string {
	if m, ok := v.(map[string]any); ok {
		if s, ok := m["type"].(string); ok {
			return s
		}
	}
	return ""
}
