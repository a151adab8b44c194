package server

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fabiov64/Filter-UAS-Zones/internal/config"
	"github.com/fabiov64/Filter-UAS-Zones/internal/mapview"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Session   *Session
	Page      mapview.PageOptions
	RateLimit config.RateLimit

	quit     func()
	quitOnce sync.Once
}

// NewServerContext wires a session to the map page settings. quit is called
// once, after the response to the first quit request has been written.
func NewServerContext(session *Session, cfg *config.Config, quit func()) *ServerContext {
	page := mapview.PageOptions{
		Title:       mapview.DefaultTitle,
		Zoom:        cfg.Zoom,
		Interactive: true,
	}

	log.Info().
		Int("zoom", page.Zoom).
		Float64("rate_limit", cfg.RateLimit.RequestsPerSecond).
		Msg("Server context initialized")

	return &ServerContext{
		Session:   session,
		Page:      page,
		RateLimit: cfg.RateLimit,
		quit:      quit,
	}
}

// Routes returns the session routes wrapped in the request logger.
// Mutating routes are rate limited when a limit is configured.
func (s *ServerContext) Routes() http.Handler {
	limited := NewRateLimiter(s.RateLimit)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleIndex)
	mux.HandleFunc("/api/zones", s.HandleZones)
	mux.HandleFunc("/api/geozones", s.HandleGeozones)
	mux.Handle("/filter", limited.Wrap(http.HandlerFunc(s.HandleFilter)))
	mux.Handle("/reset", limited.Wrap(http.HandlerFunc(s.HandleReset)))
	mux.Handle("/quit", limited.Wrap(http.HandlerFunc(s.HandleQuit)))

	return RequestLogger(mux)
}
