package server

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fabiov64/Filter-UAS-Zones/internal/config"
	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/matcher"
	"github.com/fabiov64/Filter-UAS-Zones/internal/processor"
)

// Status is the outcome reported to the page after a filter request.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
)

// Session holds the original collection of an interactive run and the
// current filtered result. The original is never modified; the result slot
// and the artifact file are only changed together under the lock.
type Session struct {
	original *geozone.Collection
	index    *processor.Index
	engine   config.Engine
	output   string

	mu         sync.Mutex
	current    *processor.Result
	generation uint64
}

// NewSession indexes original once for every later filter request.
func NewSession(original *geozone.Collection, engine config.Engine, output string) *Session {
	return &Session{
		original: original,
		index:    processor.NewIndex(original),
		engine:   engine,
		output:   output,
	}
}

// Filter selects the zones within radius meters of lat/lon. A non-empty
// result is written to the artifact file and becomes the current result; an
// empty one leaves both untouched.
func (s *Session) Filter(lat, lon, radius float64) (Status, *processor.Result, error) {
	region := matcher.NewRegion(lat, lon, radius, s.engine.Policy)
	region.Padding = s.engine.Padding

	m, err := matcher.New(region)
	if err != nil {
		return "", nil, err
	}

	res, err := processor.Filter(s.original, m, processor.Options{
		Transform: s.engine.Transform,
		Index:     s.index,
	})
	if err != nil {
		return "", nil, err
	}
	if res.Counts.Total == 0 {
		return StatusEmpty, res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := processor.Save(s.output, res.Collection); err != nil {
		return "", nil, err
	}
	s.current = res
	s.generation++

	log.Info().
		Str("path", s.output).
		Int("geozones", res.Counts.Total).
		Msg("Filtered zones saved")

	return StatusOK, res, nil
}

// Reset drops the current result. The artifact file is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.generation++
}

// Current returns the current filtered result, or nil.
func (s *Session) Current() *processor.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Shown returns the collection the map displays (the current result, or the
// original when there is none) and a version that changes on every update.
func (s *Session) Shown() (*geozone.Collection, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current.Collection, s.generation
	}
	return s.original, s.generation
}
