// Package autosave implements a debounced autosave controller for editable
// text fields, used by the example-image caption editor.
//
// Each field (keyed by a string id, e.g. an image UUID) gets a local edit
// buffer and a debounce timer. A keystroke stages the new value and re-arms
// the timer; when the timer expires the staged value is committed through an
// external persistence call. An explicit flush (the blur path) commits
// immediately, beating the timer. A failed commit keeps the buffer so the
// user's text is never lost; a deleted record discards its buffer so no
// commit can fire against a record that no longer exists.
//
// A Controller is safe for concurrent use. Commits for different fields are
// independent and may be in flight at the same time; within one field a
// generation counter makes stale timer fires and stale commit completions
// no-ops.
package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultDelay is the debounce delay used when Config.Delay is zero. It
// matches the quiet period the caption editor has always used.
const DefaultDelay = 1500 * time.Millisecond

// CommitFunc persists the staged value for a field. It receives the full
// current value, so replays are safe as overwrites even though the call is
// not assumed idempotent.
type CommitFunc func(ctx context.Context, fieldID, value string) error

// Config configures a Controller.
type Config struct {
	// Delay is the debounce quiet period. Zero means DefaultDelay.
	Delay time.Duration

	// Commit is the external persistence call. Required.
	Commit CommitFunc

	// OnError is invoked when a timer-triggered commit fails. Optional;
	// flush failures are returned to the caller instead. The error also
	// remains readable via Err until the next edit or a successful commit.
	OnError func(fieldID string, err error)

	// Logger receives commit failures. Optional.
	Logger *slog.Logger
}

// buffer holds the unsaved edit state for one field. A buffer exists exactly
// while unsaved edits exist; it is removed when a commit for its latest
// staged value succeeds, or when the field is discarded.
type buffer struct {
	value   string
	timer   *time.Timer // nil once fired or canceled (handle is consumed)
	gen     uint64      // bumped on every edit; stale commits must not clear
	lastErr error
}

// Controller owns the edit buffers and debounce timers for a set of fields.
type Controller struct {
	cfg    Config
	ctx    context.Context // parent for timer-triggered commits
	cancel context.CancelFunc

	mu     sync.Mutex
	fields map[string]*buffer
	closed bool
}

// New creates a Controller. Returns an error if no commit function is
// provided.
func New(cfg Config) (*Controller, error) {
	if cfg.Commit == nil {
		return nil, errors.New("autosave: Config.Commit is required")
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		fields: make(map[string]*buffer),
	}, nil
}

// Change stages value as the field's local value and restarts its debounce
// timer. Any previously armed timer for the field is canceled synchronously
// before the new one is armed, so at most one timer per field exists at any
// time. No-op after Close.
func (c *Controller) Change(fieldID, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	b, ok := c.fields[fieldID]
	if !ok {
		b = &buffer{}
		c.fields[fieldID] = b
	}
	if b.timer != nil {
		b.timer.Stop()
	}

	b.value = value
	b.gen++
	b.lastErr = nil

	gen := b.gen
	b.timer = time.AfterFunc(c.cfg.Delay, func() {
		c.fire(fieldID, gen)
	})
}

// Flush commits the staged value for the field immediately, canceling the
// pending timer — the blur path always beats the debounce timer. No-op when
// nothing is staged. On failure the buffer is retained and the error is
// returned so the caller can surface it and retry.
func (c *Controller) Flush(ctx context.Context, fieldID string) error {
	c.mu.Lock()
	b, ok := c.fields[fieldID]
	if !ok || c.closed {
		c.mu.Unlock()
		return nil
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	gen, value := b.gen, b.value
	c.mu.Unlock()

	err := c.cfg.Commit(ctx, fieldID, value)
	c.settle(fieldID, gen, err)
	return err
}

// Discard drops the field's buffer and cancels its timer without committing.
// Called when the owning record is deleted; no commit will fire for the
// field afterwards.
func (c *Controller) Discard(fieldID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.fields[fieldID]
	if !ok {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	delete(c.fields, fieldID)
}

// Close tears the controller down: every outstanding timer is canceled, all
// buffers are dropped, and the context for timer-triggered commits is
// canceled so nothing commits against a discarded instance. Close is
// idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, b := range c.fields {
		if b.timer != nil {
			b.timer.Stop()
		}
	}
	c.fields = make(map[string]*buffer)
	c.mu.Unlock()

	c.cancel()
}

// Value returns the staged local value for the field, if one exists.
func (c *Controller) Value(fieldID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.fields[fieldID]
	if !ok {
		return "", false
	}
	return b.value, true
}

// DisplayValue returns the value the field should show: the staged local
// value while unsaved edits exist, otherwise the canonical value.
func (c *Controller) DisplayValue(fieldID, canonical string) string {
	if v, ok := c.Value(fieldID); ok {
		return v
	}
	return canonical
}

// IsDirty reports whether the field has unsaved edits.
func (c *Controller) IsDirty(fieldID string) bool {
	_, ok := c.Value(fieldID)
	return ok
}

// Err returns the last commit error for the field, if its buffer is still
// present. Cleared by the next edit or a successful commit.
func (c *Controller) Err(fieldID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.fields[fieldID]; ok {
		return b.lastErr
	}
	return nil
}

// Dirty returns the ids of all fields with unsaved edits, sorted.
func (c *Controller) Dirty() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.fields))
	for id := range c.fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// fire is the timer expiry path. The timer handle is consumed before the
// commit starts, so a fired timer can never re-arm or re-enter; a stale fire
// (the edit it was armed for has been replaced or discarded) is a no-op.
func (c *Controller) fire(fieldID string, gen uint64) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	b, ok := c.fields[fieldID]
	if !ok || b.gen != gen {
		c.mu.Unlock()
		return
	}
	b.timer = nil
	value := b.value
	c.mu.Unlock()

	err := c.cfg.Commit(c.ctx, fieldID, value)
	c.settle(fieldID, gen, err)
	if err != nil {
		c.cfg.Logger.Error("autosave commit failed", "field_id", fieldID, "error", err)
		if c.cfg.OnError != nil {
			c.cfg.OnError(fieldID, err)
		}
	}
}

// settle applies the outcome of a commit. The buffer is cleared exactly when
// a commit for its latest staged value succeeded; an edit that arrived while
// the commit was in flight bumps the generation, so the stale success leaves
// the newer value staged.
func (c *Controller) settle(fieldID string, gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.fields[fieldID]
	if !ok || b.gen != gen {
		return
	}
	if err != nil {
		b.lastErr = err
		return
	}
	delete(c.fields, fieldID)
}
