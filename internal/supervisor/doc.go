// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor runs Marquee's long-lived services under suture v4.

The tree has three layers, each its own supervisor so a crash restarts
only that layer:

	marquee
	├── data-layer
	│   └── event-ingest (ingest.Pipeline worker)
	├── messaging-layer
	│   └── websocket-hub
	└── api-layer
	    └── http-server

Supervisor events are logged through sutureslog, which main wires to the
zerolog-backed slog handler from the logging package.

# Shutdown

Canceling the context passed to Serve stops every layer at once. main
instead uses ServeBackground followed by Shutdown, which stops the api
layer first so no handler can enqueue after the queue begins draining,
then the data layer (the worker drains for its configured deadline and
reports lost events), then the live feed.

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(services.NewIngestService(pipeline, 5*time.Second))
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	done := tree.ServeBackground(ctx)
	<-sigCh
	if err := tree.Shutdown(); err != nil {
	    logging.Error().Err(err).Msg("shutdown incomplete")
	}
*/
package supervisor
