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
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/panorama/services/knowledge/builder"
	"github.com/AleutianAI/panorama/services/knowledge/record"
)

// DirFeed turns filesystem changes in a directory of project context
// records into change feed events.
//
// # Description
//
// Each YAML file under the watched directory is treated as one source
// of project context records. File creation emits Added events, writes
// emit Modified events, and removal or rename emits Deleted events for
// the records last seen in that file.
//
// # Thread Safety
//
// Next must be called from a single goroutine. Close may be called
// concurrently with Next.
type DirFeed struct {
	dir     string
	watcher *fsnotify.Watcher

	// known caches the records last decoded from each file so that
	// deletions can still name the projects being removed.
	known map[string][]record.ProjectContext

	// queue holds events decoded from a single filesystem notification
	// that have not yet been returned by Next.
	queue []Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewDirFeed watches dir for changes to YAML record files.
//
// # Inputs
//
//   - dir: Directory containing project context record files.
//
// # Outputs
//
//   - *DirFeed: The feed. Existing files are emitted as Added events
//     on the first calls to Next.
//   - error: Non-nil if the directory cannot be watched.
func NewDirFeed(dir string) (*DirFeed, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	f := &DirFeed{
		dir:     dir,
		watcher: w,
		known:   make(map[string][]record.ProjectContext),
		done:    make(chan struct{}),
	}
	f.seedExisting()
	return f, nil
}

// seedExisting queues Added events for records already on disk.
func (f *DirFeed) seedExisting() {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(f.dir, entry.Name())
		if !isRecordFile(path) {
			continue
		}
		f.queueFromFile(path, EventAdded)
	}
}

// Next returns the next queued event, blocking on filesystem
// notifications when the queue is empty.
func (f *DirFeed) Next(ctx context.Context) (Event, error) {
	for {
		if len(f.queue) > 0 {
			ev := f.queue[0]
			f.queue = f.queue[1:]
			return ev, nil
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-f.done:
			return Event{}, ErrFeedUnavailable
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return Event{}, ErrFeedUnavailable
			}
			return Event{}, fmt.Errorf("filesystem watch: %w", err)
		case fsEvent, ok := <-f.watcher.Events:
			if !ok {
				return Event{}, ErrFeedUnavailable
			}
			f.handleFSEvent(fsEvent)
		}
	}
}

// handleFSEvent translates one filesystem notification into zero or
// more queued change feed events.
func (f *DirFeed) handleFSEvent(fsEvent fsnotify.Event) {
	if !isRecordFile(fsEvent.Name) {
		return
	}

	switch {
	case fsEvent.Op.Has(fsnotify.Create):
		f.queueFromFile(fsEvent.Name, EventAdded)
	case fsEvent.Op.Has(fsnotify.Write):
		f.queueFromFile(fsEvent.Name, EventModified)
	case fsEvent.Op.Has(fsnotify.Remove), fsEvent.Op.Has(fsnotify.Rename):
		for _, rec := range f.known[fsEvent.Name] {
			f.queue = append(f.queue, Event{Type: EventDeleted, Context: rec})
		}
		delete(f.known, fsEvent.Name)
	}
}

// queueFromFile decodes the file and queues one event per record.
// Files that fail to decode are skipped; a partially written file will
// be retried on its next Write notification.
//
// On a rewrite, records dropped from the file are retracted: any
// project present in the cached decode but absent from the new one is
// queued as Deleted, so multi-record files cannot leak stale projects.
func (f *DirFeed) queueFromFile(path string, eventType EventType) {
	records, err := record.LoadFile(path)
	if err != nil {
		return
	}

	if eventType == EventModified {
		present := make(map[string]bool, len(records))
		for i := range records {
			present[builder.DeriveProjectID(&records[i])] = true
		}
		for _, old := range f.known[path] {
			rec := old
			if !present[builder.DeriveProjectID(&rec)] {
				f.queue = append(f.queue, Event{Type: EventDeleted, Context: rec})
			}
		}
	}

	for _, rec := range records {
		f.queue = append(f.queue, Event{Type: eventType, Context: rec})
	}
	f.known[path] = records
}

// Close stops the filesystem watch.
func (f *DirFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.watcher.Close()
	})
	return err
}

// isRecordFile reports whether the path looks like a YAML record file.
func isRecordFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
