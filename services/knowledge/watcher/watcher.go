// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watcher keeps a knowledge graph eventually consistent with a
// live, strictly ordered stream of project context change events.
//
// The watcher runs a single sequential loop: each event is processed to
// completion before the next is read, so per-record ordering is
// preserved by construction. Add and modify events delegate to the
// builder's per-record processing; modify events first retract the
// exact edge set emitted for the prior record version, closing the
// append-only staleness gap. Delete events remove the project node and
// every edge touching it.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/panorama/services/knowledge/builder"
	"github.com/AleutianAI/panorama/services/knowledge/graph"
	"github.com/AleutianAI/panorama/services/knowledge/record"
)

// EventType classifies a change feed notification.
type EventType int

const (
	// EventAdded indicates a new project context record.
	EventAdded EventType = iota

	// EventModified indicates an updated record.
	EventModified

	// EventDeleted indicates a removed record.
	EventDeleted
)

// String returns the string representation of the EventType.
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is one change feed notification.
type Event struct {
	Type    EventType
	Context record.ProjectContext
}

// Feed is a source of ordered change events.
//
// Next blocks until an event arrives, the stream fails, or ctx is
// cancelled. Implementations are not required to abort an in-flight
// network read on cancellation; the watcher only polls its stop flag
// between events.
type Feed interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// Default reconnect backoff bounds.
const (
	DefaultReconnectBackoff    = time.Second
	DefaultMaxReconnectBackoff = 30 * time.Second
)

// Options configures a Watcher.
type Options struct {
	// ReconnectBackoff is the initial delay before re-dialing a failed
	// stream. Doubles per attempt up to MaxReconnectBackoff.
	ReconnectBackoff time.Duration

	// MaxReconnectBackoff caps the reconnect delay.
	MaxReconnectBackoff time.Duration

	// Reconnect re-establishes the feed after a stream failure. When
	// nil, a stream failure ends the watch with the stream error.
	Reconnect func(ctx context.Context) (Feed, error)
}

// Watcher applies change feed events to a shared graph.
//
// # Thread Safety
//
// Run executes a single sequential loop and is not safe to call from
// multiple goroutines. Stop is safe to call from any goroutine; it is
// cooperative, checked once per received event.
type Watcher struct {
	builder *builder.Builder
	feed    Feed
	opts    Options
	logger  *slog.Logger
	stopped atomic.Bool

	// emitted tracks the edge set most recently emitted per project
	// id, so a modify event can retract exactly the stale edges.
	emitted map[string][]graph.EdgeKey
}

// New creates a Watcher applying events from feed via b.
//
// # Inputs
//
//   - b: The builder whose per-record processing is reused. Must not
//     be nil.
//   - feed: The established change feed. Must not be nil; use Connect
//     to establish one from configuration.
//   - opts: Reconnect behavior. Zero values use defaults.
func New(b *builder.Builder, feed Feed, opts Options) *Watcher {
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = DefaultReconnectBackoff
	}
	if opts.MaxReconnectBackoff <= 0 {
		opts.MaxReconnectBackoff = DefaultMaxReconnectBackoff
	}
	return &Watcher{
		builder: b,
		feed:    feed,
		opts:    opts,
		logger:  slog.Default().With("component", "knowledge.watcher"),
		emitted: make(map[string][]graph.EdgeKey),
	}
}

// Run consumes the feed until Stop, cancellation, or an unrecoverable
// stream failure.
//
// # Description
//
// Each event is processed to completion before the next read. Stream
// failures trigger reconnection with capped exponential backoff when
// Options.Reconnect is set; otherwise the stream error is returned.
//
// # Outputs
//
//   - error: Nil after Stop; ctx.Err() on cancellation; the stream
//     error when reconnection is not configured or keeps failing.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("ctx must not be nil")
	}
	if w.feed == nil {
		return ErrFeedUnavailable
	}

	// Close whichever feed is current at exit; a reconnect may have
	// replaced the one Run started with.
	defer func() { w.feed.Close() }()

	backoff := w.opts.ReconnectBackoff
	for {
		if w.stopped.Load() {
			w.logger.Info("watch stopped")
			return nil
		}

		ev, err := w.feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if w.stopped.Load() {
				return nil
			}
			if w.opts.Reconnect == nil {
				return fmt.Errorf("change feed failed: %w", err)
			}

			w.logger.Warn("change feed failed, reconnecting",
				"error", err, "backoff", backoff.String())
			w.feed.Close()

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = min(backoff*2, w.opts.MaxReconnectBackoff)

			recordReconnect(ctx)
			next, rerr := w.opts.Reconnect(ctx)
			if rerr != nil {
				w.logger.Warn("reconnect failed", "error", rerr)
				continue
			}
			w.feed = next
			continue
		}

		backoff = w.opts.ReconnectBackoff
		if herr := w.handleEvent(ctx, ev); herr != nil {
			w.logger.Error("event processing failed",
				"event_type", ev.Type.String(), "error", herr)
		}
	}
}

// Stop requests a cooperative shutdown. The flag is polled once per
// received event; an in-flight network read is not interrupted.
func (w *Watcher) Stop() {
	w.stopped.Store(true)
}

// handleEvent applies one change notification to the graph.
func (w *Watcher) handleEvent(ctx context.Context, ev Event) error {
	rec := ev.Context
	projectID := builder.DeriveProjectID(&rec)

	switch ev.Type {
	case EventAdded, EventModified:
		if prev := w.emitted[projectID]; len(prev) > 0 {
			// Retract the edges emitted for the prior record version
			// before reprocessing, so stale edges cannot accumulate.
			w.builder.Graph().RemoveEdges(prev)
		}
		keys, err := w.builder.ProcessContext(ctx, &rec)
		if err != nil {
			return err
		}
		w.emitted[projectID] = keys

	case EventDeleted:
		w.builder.RemoveProject(projectID)
		delete(w.emitted, projectID)

	default:
		return fmt.Errorf("unrecognized event type %d", ev.Type)
	}

	recordEventProcessed(ctx, ev.Type.String())
	w.logger.Debug("event applied",
		"event_type", ev.Type.String(), "project", projectID)
	return nil
}
