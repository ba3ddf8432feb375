package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-silhouette/params"
	"github.com/nvr-ai/go-silhouette/profiler"
)

// errNoFrame is reported by /snapshot before the first overlay is published.
var errNoFrame = errors.New("no overlay frame yet")

// specView is the JSON form of params.Spec.
type specView struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Integer bool    `json:"integer"`
	Value   float64 `json:"value"`
}

// statsView adds stream client counts to the profiler statistics.
type statsView struct {
	profiler.Stats
	Clients map[string]int `json:"clients"`
}

func (s *Server) getParams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Store.Snapshot())
}

// putParams applies a partial update: a JSON object of tunable names to
// numbers. Values are clamped, unknown names reject the whole request.
func (s *Server) putParams(w http.ResponseWriter, r *http.Request) {
	var body map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode parameters"))
		return
	}
	for name := range body {
		if _, ok := params.Lookup(name); !ok {
			writeError(w, http.StatusBadRequest, errors.Wrapf(params.ErrUnknownParameter, "%q", name))
			return
		}
	}
	set := s.opts.Store.Update(func(p *params.Set) {
		for name, v := range body {
			_ = p.SetNamed(name, v)
		}
	})
	s.logger.Infow("parameters updated", "source", "http", "values", set.Values())
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) resetParams(w http.ResponseWriter, _ *http.Request) {
	set := s.opts.Store.Reset()
	s.logger.Infow("parameters reset", "source", "http")
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) getSpecs(w http.ResponseWriter, _ *http.Request) {
	current := s.opts.Store.Snapshot()
	out := make([]specView, 0, len(params.Specs))
	for _, sp := range params.Specs {
		out = append(out, specView{
			Name:    sp.Name,
			Min:     sp.Min,
			Max:     sp.Max,
			Default: sp.Default,
			Integer: sp.Integer,
			Value:   sp.Get(current),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	view := statsView{Stats: s.opts.Profiler.Snapshot(), Clients: map[string]int{}}
	if s.opts.Overlay != nil {
		view.Clients["overlay"] = s.opts.Overlay.Clients()
	}
	if s.opts.Raw != nil {
		view.Clients["raw"] = s.opts.Raw.Clients()
	}
	writeJSON(w, http.StatusOK, view)
}

// getSnapshot serves the most recent overlay frame as a single image.
func (s *Server) getSnapshot(w http.ResponseWriter, _ *http.Request) {
	frame := s.opts.Overlay.Latest()
	if frame == nil {
		writeError(w, http.StatusServiceUnavailable, errNoFrame)
		return
	}
	w.Header().Set("Content-Type", frame.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(frame.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Seq", strconv.FormatUint(frame.Seq, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame.Data)
}
