// Package server exposes an interactive filter session over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/mapview"
	"github.com/fabiov64/Filter-UAS-Zones/internal/processor"
)

const maxBodySize = 1 << 16

// FilterRequest is the body of POST /filter. Radius is in meters.
type FilterRequest struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Radius *float64 `json:"radius"`
}

// StatusResponse is returned by the mutating routes.
type StatusResponse struct {
	Status Status            `json:"status"`
	Counts *processor.Counts `json:"counts,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleIndex serves the map page of the shown collection.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	c, generation := s.Session.Shown()
	etag := fmt.Sprintf(`"page-%x"`, generation)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	page, err := mapview.Render(mapview.Build(c), s.Page)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render map page")
		writeError(w, http.StatusInternalServerError, "failed to render map page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(page)
}

// HandleZones serves the zone layer of the shown collection as GeoJSON.
func (s *ServerContext) HandleZones(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	c, _ := s.Session.Shown()
	data, err := mapview.LayerJSON(mapview.Build(c))
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode zone layer")
		writeError(w, http.StatusInternalServerError, "failed to encode zone layer")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

// HandleGeozones serves the shown collection in artifact form.
func (s *ServerContext) HandleGeozones(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	c, _ := s.Session.Shown()
	var buf bytes.Buffer
	if err := geozone.Encode(&buf, c); err != nil {
		log.Error().Err(err).Msg("Failed to encode collection")
		writeError(w, http.StatusInternalServerError, "failed to encode collection")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

// HandleFilter runs a filter around the posted circle.
func (s *ServerContext) HandleFilter(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	req, err := decodeFilterRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, res, err := s.Session.Filter(*req.Lat, *req.Lon, *req.Radius)
	if err != nil {
		log.Error().Err(err).Msg("Filter request failed")
		writeError(w, http.StatusInternalServerError, "filter failed")
		return
	}

	resp := StatusResponse{Status: status}
	if status == StatusOK {
		resp.Counts = &res.Counts
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleReset drops the current result.
func (s *ServerContext) HandleReset(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	s.Session.Reset()
	writeJSON(w, http.StatusOK, StatusResponse{Status: StatusOK})
}

// HandleQuit acknowledges the request and then stops the server.
func (s *ServerContext) HandleQuit(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: StatusOK})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	s.quitOnce.Do(func() {
		log.Info().Msg("Quit requested")
		if s.quit != nil {
			go s.quit()
		}
	})
}

func decodeFilterRequest(body io.Reader) (*FilterRequest, error) {
	var req FilterRequest
	dec := json.NewDecoder(io.LimitReader(body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	switch {
	case req.Lat == nil || req.Lon == nil || req.Radius == nil:
		return nil, errors.New("lat, lon and radius are required")
	case !finite(*req.Lat) || *req.Lat < -90 || *req.Lat > 90:
		return nil, fmt.Errorf("lat %v out of range", *req.Lat)
	case !finite(*req.Lon) || *req.Lon < -180 || *req.Lon > 180:
		return nil, fmt.Errorf("lon %v out of range", *req.Lon)
	case !finite(*req.Radius):
		return nil, errors.New("radius must be a finite number of meters")
	}
	return &req, nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
