// Package controller keeps the rendered task entities in step with the store.
//
// Every refresh is a full rebuild: the store is listed and one entity is
// built per record in the returned order. Refreshes run on a fixed
// interval and right after each successful mutation.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/store"
	"github.com/nibzard/tasklist/internal/task"
)

// DefaultInterval is the polling period of the refresh loop.
const DefaultInterval = time.Second

// ErrRefreshInFlight is returned by Refresh when another refresh has not
// finished yet. The tick is skipped.
var ErrRefreshInFlight = errors.New("refresh already in flight")

// Snapshot is the result of one refresh.
type Snapshot struct {
	Entities []task.Entity
	At       time.Time
}

// Len returns the number of rendered entities.
func (s Snapshot) Len() int {
	return len(s.Entities)
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source used for render states and
// completion times.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for refresh and command events.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAfterApply registers fn to run after each successfully applied
// command and before the refresh that follows it.
func WithAfterApply(fn func(context.Context, task.Command)) Option {
	return func(c *Controller) {
		c.afterApply = fn
	}
}

// Controller orchestrates refreshes and command execution.
type Controller struct {
	store      store.Store
	now        func() time.Time
	logger     *log.Logger
	afterApply func(context.Context, task.Command)

	// refreshMu is held for the duration of a refresh.
	refreshMu sync.Mutex
	skipped   atomic.Int64

	mu      sync.RWMutex
	current Snapshot
}

// New creates a controller over s.
func New(s store.Store, opts ...Option) *Controller {
	c := &Controller{
		store:  s,
		now:    time.Now,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the controller's current time.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Current returns the last successful snapshot.
func (c *Controller) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Skipped returns how many interval refreshes were dropped because a
// refresh was still running.
func (c *Controller) Skipped() int64 {
	return c.skipped.Load()
}

// Refresh performs an interval-triggered refresh. If another refresh is
// running it returns the current snapshot and ErrRefreshInFlight.
func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	if !c.refreshMu.TryLock() {
		c.skipped.Add(1)
		c.logger.Debug("refresh skipped", "reason", "in flight")
		return c.Current(), ErrRefreshInFlight
	}
	defer c.refreshMu.Unlock()
	return c.rebuild(ctx)
}

// Dispatch applies cmd to the store and then refreshes. The post-mutation
// refresh waits for any running refresh instead of being skipped.
func (c *Controller) Dispatch(ctx context.Context, cmd task.Command) (Snapshot, error) {
	if cmd == nil {
		return c.Current(), fmt.Errorf("dispatch: nil command")
	}
	if err := cmd.Apply(ctx, c.store); err != nil {
		c.logger.Error("command failed", "command", cmd.String(), "err", err)
		return c.Current(), err
	}
	c.logger.Info("command applied", "command", cmd.String())
	if c.afterApply != nil {
		c.afterApply(ctx, cmd)
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.rebuild(ctx)
}

func (c *Controller) rebuild(ctx context.Context) (Snapshot, error) {
	tasks, err := c.store.List(ctx)
	if err != nil {
		c.logger.Error("refresh failed", "err", err)
		return c.Current(), fmt.Errorf("refresh: %w", err)
	}

	now := c.now()
	snap := Snapshot{
		Entities: make([]task.Entity, 0, len(tasks)),
		At:       now,
	}
	for _, t := range tasks {
		snap.Entities = append(snap.Entities, task.NewEntity(t, now))
	}

	c.mu.Lock()
	c.current = snap
	c.mu.Unlock()
	c.logger.Debug("refreshed", "tasks", snap.Len())
	return snap, nil
}

// Run refreshes immediately and then every interval until ctx is done,
// passing each result to fn. Skipped ticks are not reported.
func (c *Controller) Run(ctx context.Context, interval time.Duration, fn func(Snapshot, error)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	report := func() {
		snap, err := c.Refresh(ctx)
		if errors.Is(err, ErrRefreshInFlight) {
			return
		}
		if fn != nil {
			fn(snap, err)
		}
	}

	report()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report()
		}
	}
}
