// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/panorama/cmd/panorama/config"
	"github.com/AleutianAI/panorama/services/knowledge/builder"
	"github.com/AleutianAI/panorama/services/knowledge/graph"
	"github.com/AleutianAI/panorama/services/knowledge/watcher"
)

var (
	watchDir     string
	watchURL     string
	watchNoBuild bool
)

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "",
		"Watch a local directory of record files instead of the websocket feed")
	watchCmd.Flags().StringVar(&watchURL, "feed", "",
		"Websocket feed endpoint (overrides feed.url from the config)")
	watchCmd.Flags().BoolVar(&watchNoBuild, "no-build", false,
		"Skip the initial full rebuild and start from an empty graph")
}

// runWatch builds the graph, then keeps it updated from a change feed
// until interrupted.
func runWatch(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var b *builder.Builder
	if watchNoBuild {
		b = builder.New(graph.New())
	} else {
		g, result, err := buildGraph(ctx)
		if err != nil {
			log.Fatalf("Error building graph: %v", err)
		}
		fmt.Printf("Initial build: %d nodes, %d edges\n", result.NodeCount, result.EdgeCount)
		b = builder.New(g)
	}

	feed, opts, err := openFeed(ctx)
	if err != nil {
		if errors.Is(err, watcher.ErrNoFeedConfig) {
			fmt.Fprintln(os.Stderr, "No change feed configured:")
			fmt.Fprintln(os.Stderr, "  set feed.url in ~/.panorama/panorama.yaml,")
			fmt.Fprintf(os.Stderr, "  export %s, or pass --dir / --feed\n", watcher.EnvFeedURL)
			os.Exit(1)
		}
		log.Fatalf("Error opening change feed: %v", err)
	}

	w := watcher.New(b, feed, opts)
	fmt.Println("Watching for project context changes (ctrl-c to stop)")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Watch failed: %v", err)
	}
}

// openFeed picks the feed transport: an explicit directory, otherwise
// the websocket endpoint resolved with the config/env fallback.
func openFeed(ctx context.Context) (watcher.Feed, watcher.Options, error) {
	if watchDir != "" {
		feed, err := watcher.NewDirFeed(watchDir)
		return feed, watcher.Options{}, err
	}

	cfg := watcher.FeedConfig{
		URL:   config.Global.Feed.URL,
		Token: config.Global.Feed.Token,
	}
	if watchURL != "" {
		cfg.URL = watchURL
	}

	feed, err := watcher.Connect(ctx, cfg)
	if err != nil {
		return nil, watcher.Options{}, err
	}

	opts := watcher.Options{
		Reconnect: func(ctx context.Context) (watcher.Feed, error) {
			return watcher.Connect(ctx, cfg)
		},
	}
	return feed, opts, nil
}
