// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
)

// EventPipeline is the lifecycle of *ingest.Pipeline.
type EventPipeline interface {
	Start()
	Stop(deadline time.Duration) int
}

// IngestService runs the event worker under suture. Cancellation drains
// the queue for at most the drain deadline; anything still queued after
// that is counted as lost and logged.
type IngestService struct {
	pipeline EventPipeline
	deadline time.Duration
	name     string
}

// NewIngestService wraps pipeline. deadline bounds the drain on stop.
func NewIngestService(pipeline EventPipeline, deadline time.Duration) *IngestService {
	return &IngestService{
		pipeline: pipeline,
		deadline: deadline,
		name:     "event-ingest",
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	s.pipeline.Start()
	<-ctx.Done()

	lost := s.pipeline.Stop(s.deadline)
	ev := logging.Info()
	if lost > 0 {
		ev = logging.Warn()
	}
	ev.Int("lost", lost).Dur("deadline", s.deadline).Msg("event ingestion stopped")
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *IngestService) String() string {
	return s.name
}
