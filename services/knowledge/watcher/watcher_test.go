// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/panorama/services/knowledge/builder"
	"github.com/AleutianAI/panorama/services/knowledge/graph"
	"github.com/AleutianAI/panorama/services/knowledge/record"
)

// chanFeed is a test feed backed by a channel. Closing the channel
// makes Next return errStreamClosed.
type chanFeed struct {
	events chan Event
	closed bool
}

var errStreamClosed = errors.New("stream closed")

func newChanFeed(buffer int) *chanFeed {
	return &chanFeed{events: make(chan Event, buffer)}
}

func (f *chanFeed) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-f.events:
		if !ok {
			return Event{}, errStreamClosed
		}
		return ev, nil
	}
}

func (f *chanFeed) Close() error {
	f.closed = true
	return nil
}

func testContext(name, owner string, targets ...record.Target) record.ProjectContext {
	return record.ProjectContext{
		Metadata: record.Metadata{Name: name, Namespace: "prod"},
		Spec: record.Spec{
			Business: &record.Business{Owner: owner},
			Targets:  targets,
		},
	}
}

func newTestWatcher(feed Feed) (*Watcher, *graph.Graph) {
	g := graph.New()
	b := builder.New(g)
	return New(b, feed, Options{}), g
}

func TestWatcher_HandleEvent(t *testing.T) {
	t.Run("added populates the graph", func(t *testing.T) {
		w, g := newTestWatcher(newChanFeed(1))
		ev := Event{Type: EventAdded, Context: testContext("checkout", "payments-team",
			record.Target{Kind: "Service", Name: "checkout-svc"})}

		if err := w.handleEvent(context.Background(), ev); err != nil {
			t.Fatalf("handleEvent: %v", err)
		}

		if _, ok := g.GetNode("checkout"); !ok {
			t.Error("expected project node")
		}
		if got := len(g.GetEdgesFrom("checkout")); got != 2 {
			t.Errorf("expected owned_by + manages edges, got %d", got)
		}
	})

	t.Run("modify retracts stale edges", func(t *testing.T) {
		w, g := newTestWatcher(newChanFeed(1))
		ctx := context.Background()

		added := Event{Type: EventAdded, Context: testContext("checkout", "payments-team",
			record.Target{Kind: "Service", Name: "old-svc"})}
		if err := w.handleEvent(ctx, added); err != nil {
			t.Fatalf("handleEvent added: %v", err)
		}

		modified := Event{Type: EventModified, Context: testContext("checkout", "payments-team",
			record.Target{Kind: "Service", Name: "new-svc"})}
		if err := w.handleEvent(ctx, modified); err != nil {
			t.Fatalf("handleEvent modified: %v", err)
		}

		oldResource := "resource:prod/Service/old-svc"
		for _, e := range g.GetEdgesFrom("checkout") {
			if e.TargetID == oldResource {
				t.Errorf("stale manages edge survived the modify: %+v", e)
			}
		}
		if got := len(g.GetEdgesTo("resource:prod/Service/new-svc")); got != 1 {
			t.Errorf("expected 1 manages edge to the new resource, got %d", got)
		}
		// owned_by must not be duplicated across reprocessing.
		if got := len(g.GetEdgesTo("team:payments-team")); got != 1 {
			t.Errorf("expected 1 owned_by edge after modify, got %d", got)
		}
	})

	t.Run("modify without prior add behaves like add", func(t *testing.T) {
		w, g := newTestWatcher(newChanFeed(1))
		ev := Event{Type: EventModified, Context: testContext("billing", "payments-team")}
		if err := w.handleEvent(context.Background(), ev); err != nil {
			t.Fatalf("handleEvent: %v", err)
		}
		if _, ok := g.GetNode("billing"); !ok {
			t.Error("expected project node")
		}
	})

	t.Run("delete removes node and every touching edge", func(t *testing.T) {
		w, g := newTestWatcher(newChanFeed(1))
		ctx := context.Background()

		added := Event{Type: EventAdded, Context: testContext("checkout", "payments-team",
			record.Target{Kind: "Service", Name: "checkout-svc"})}
		if err := w.handleEvent(ctx, added); err != nil {
			t.Fatalf("handleEvent added: %v", err)
		}

		deleted := Event{Type: EventDeleted, Context: testContext("checkout", "payments-team")}
		if err := w.handleEvent(ctx, deleted); err != nil {
			t.Fatalf("handleEvent deleted: %v", err)
		}

		if _, ok := g.GetNode("checkout"); ok {
			t.Error("expected project node removed")
		}
		if got := len(g.GetEdgesFrom("checkout")) + len(g.GetEdgesTo("checkout")); got != 0 {
			t.Errorf("expected no edges touching the project, got %d", got)
		}
		if _, ok := w.emitted["checkout"]; ok {
			t.Error("expected emitted bookkeeping cleared")
		}
	})
}

func TestWatcher_Run(t *testing.T) {
	t.Run("applies events until the stream fails", func(t *testing.T) {
		feed := newChanFeed(2)
		feed.events <- Event{Type: EventAdded, Context: testContext("checkout", "payments-team")}
		feed.events <- Event{Type: EventAdded, Context: testContext("billing", "payments-team")}
		close(feed.events)

		w, g := newTestWatcher(feed)
		err := w.Run(context.Background())
		if !errors.Is(err, errStreamClosed) {
			t.Fatalf("expected wrapped stream error, got %v", err)
		}

		if _, ok := g.GetNode("checkout"); !ok {
			t.Error("expected checkout applied before the failure")
		}
		if _, ok := g.GetNode("billing"); !ok {
			t.Error("expected billing applied before the failure")
		}
		if !feed.closed {
			t.Error("expected the feed closed on exit")
		}
	})

	t.Run("stop is cooperative", func(t *testing.T) {
		feed := newChanFeed(4)
		w, _ := newTestWatcher(feed)

		done := make(chan error, 1)
		go func() { done <- w.Run(context.Background()) }()

		w.Stop()
		// Unblock the pending Next so the loop can observe the flag.
		feed.events <- Event{Type: EventAdded, Context: testContext("checkout", "payments-team")}

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("expected nil after Stop, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Stop")
		}
	})

	t.Run("cancellation returns ctx error", func(t *testing.T) {
		feed := newChanFeed(1)
		w, _ := newTestWatcher(feed)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancellation")
		}
	})

	t.Run("closes the replacement feed on shutdown", func(t *testing.T) {
		first := newChanFeed(1)
		close(first.events)

		second := newChanFeed(1)
		reconnected := make(chan struct{})
		opts := Options{
			ReconnectBackoff:    time.Millisecond,
			MaxReconnectBackoff: 2 * time.Millisecond,
			Reconnect: func(ctx context.Context) (Feed, error) {
				close(reconnected)
				return second, nil
			},
		}

		w := New(builder.New(graph.New()), first, opts)

		done := make(chan error, 1)
		go func() { done <- w.Run(context.Background()) }()

		select {
		case <-reconnected:
		case <-time.After(2 * time.Second):
			t.Fatal("reconnect was never attempted")
		}

		w.Stop()
		second.events <- Event{Type: EventAdded, Context: testContext("nudge", "t")}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Stop")
		}

		if !first.closed {
			t.Error("expected the original feed closed")
		}
		if !second.closed {
			t.Error("expected the replacement feed closed on exit")
		}
	})

	t.Run("reconnects after a stream failure", func(t *testing.T) {
		first := newChanFeed(1)
		close(first.events)

		second := newChanFeed(1)
		second.events <- Event{Type: EventAdded, Context: testContext("checkout", "payments-team")}

		reconnected := make(chan struct{})
		opts := Options{
			ReconnectBackoff:    time.Millisecond,
			MaxReconnectBackoff: 2 * time.Millisecond,
			Reconnect: func(ctx context.Context) (Feed, error) {
				close(reconnected)
				return second, nil
			},
		}

		g := graph.New()
		w := New(builder.New(g), first, opts)

		done := make(chan error, 1)
		go func() { done <- w.Run(context.Background()) }()

		select {
		case <-reconnected:
		case <-time.After(2 * time.Second):
			t.Fatal("reconnect was never attempted")
		}

		// The replacement stream delivers one event, then we stop.
		deadline := time.After(2 * time.Second)
		for {
			if _, ok := g.GetNode("checkout"); ok {
				break
			}
			select {
			case <-deadline:
				t.Fatal("event from the replacement stream was never applied")
			case <-time.After(5 * time.Millisecond):
			}
		}

		w.Stop()
		second.events <- Event{Type: EventAdded, Context: testContext("nudge", "t")}
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Stop")
		}
	})
}

func TestConnect_Fallback(t *testing.T) {
	t.Run("no config anywhere is a structured error", func(t *testing.T) {
		t.Setenv(EnvFeedURL, "")
		t.Setenv(EnvFeedToken, "")

		feed, err := Connect(context.Background(), FeedConfig{})
		if feed != nil {
			t.Error("expected nil feed")
		}
		if !errors.Is(err, ErrNoFeedConfig) {
			t.Errorf("expected ErrNoFeedConfig, got %v", err)
		}
	})

	t.Run("environment supplies the endpoint", func(t *testing.T) {
		t.Setenv(EnvFeedURL, "ws://feed.internal:9090/stream")
		t.Setenv(EnvFeedToken, "secret")

		resolved, err := resolveFeedConfig(FeedConfig{})
		if err != nil {
			t.Fatalf("resolveFeedConfig: %v", err)
		}
		if resolved.URL != "ws://feed.internal:9090/stream" || resolved.Token != "secret" {
			t.Errorf("unexpected resolution: %+v", resolved)
		}
	})

	t.Run("explicit config wins over environment", func(t *testing.T) {
		t.Setenv(EnvFeedURL, "ws://env.example/stream")

		resolved, err := resolveFeedConfig(FeedConfig{URL: "ws://explicit.example/stream"})
		if err != nil {
			t.Fatalf("resolveFeedConfig: %v", err)
		}
		if resolved.URL != "ws://explicit.example/stream" {
			t.Errorf("expected explicit url to win, got %q", resolved.URL)
		}
	})

	t.Run("unreachable endpoint reports feed unavailable", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := Connect(ctx, FeedConfig{URL: "ws://127.0.0.1:1/stream"})
		if !errors.Is(err, ErrFeedUnavailable) {
			t.Errorf("expected ErrFeedUnavailable, got %v", err)
		}
	})
}
