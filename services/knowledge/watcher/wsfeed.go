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
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/AleutianAI/panorama/services/knowledge/record"
)

// wireEvent is the JSON shape sent by the change feed server.
type wireEvent struct {
	Type   string                `json:"type"`
	Object record.ProjectContext `json:"object"`
}

// wsFeed streams change events over a websocket connection.
type wsFeed struct {
	conn *websocket.Conn
}

// DialFeed connects to a websocket change feed endpoint.
//
// # Inputs
//
//   - ctx: Context bounding the dial handshake.
//   - url: Websocket endpoint (ws:// or wss://).
//   - token: Optional bearer token.
//
// # Outputs
//
//   - Feed: The established stream.
//   - error: Non-nil if the handshake fails.
func DialFeed(ctx context.Context, url, token string) (Feed, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsFeed{conn: conn}, nil
}

// Next reads the next event from the stream.
//
// The read blocks on the wire; cancellation takes effect at event
// boundaries, matching the watcher's cooperative stop model.
func (f *wsFeed) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	var wire wireEvent
	if err := f.conn.ReadJSON(&wire); err != nil {
		return Event{}, fmt.Errorf("reading change feed: %w", err)
	}

	eventType, err := parseEventType(wire.Type)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Context: wire.Object}, nil
}

// Close closes the websocket connection.
func (f *wsFeed) Close() error {
	return f.conn.Close()
}

// parseEventType maps the wire type to an EventType.
func parseEventType(s string) (EventType, error) {
	switch strings.ToLower(s) {
	case "added", "add", "create", "created":
		return EventAdded, nil
	case "modified", "modify", "update", "updated":
		return EventModified, nil
	case "deleted", "delete", "remove", "removed":
		return EventDeleted, nil
	default:
		return 0, fmt.Errorf("unrecognized change feed event type %q", s)
	}
}
