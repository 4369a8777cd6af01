// Package control implements a read-only HTTP/JSON introspection server
// over a running hdc.Device: the feature tree and current states. It
// plays the role the teacher's internal/server package plays for BFD
// sessions, but on plain net/http + encoding/json instead of ConnectRPC --
// this device has no RPC surface to expose, only read-only state, so the
// protobuf/connect-go stack the teacher pulls in has nothing to serve here
// (see DESIGN.md).
package control

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dantte-lp/gohdc/internal/hdc"
)

// Server serves read-only JSON views of a Device's feature tree and
// current states.
type Server struct {
	dev    *hdc.Device
	logger *slog.Logger
	http   *http.Server
}

// New builds a Server bound to addr, but does not start listening --
// call Run to serve.
func New(dev *hdc.Device, addr string, logger *slog.Logger) *Server {
	s := &Server{
		dev:    dev,
		logger: logger.With(slog.String("component", "control")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /features", s.handleFeatures)
	mux.HandleFunc("GET /features/{id}", s.handleFeature)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's http.Handler, for use with httptest or an
// externally managed http.Server.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("control server listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// featureView is the JSON shape returned for one feature.
type featureView struct {
	ID           uint8        `json:"id"`
	Name         string       `json:"name"`
	ClassName    string       `json:"class"`
	ClassVersion string       `json:"classVersion"`
	Description  string       `json:"description,omitempty"`
	State        uint8        `json:"state"`
	LogThreshold uint8        `json:"logThreshold"`
	States       []stateView  `json:"states,omitempty"`
	Commands     []nameIDView `json:"commands,omitempty"`
	Properties   []nameIDView `json:"properties,omitempty"`
	Events       []nameIDView `json:"events,omitempty"`
}

type stateView struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

type nameIDView struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

func toFeatureView(f *hdc.Feature) featureView {
	v := featureView{
		ID:           f.ID,
		Name:         f.Name,
		ClassName:    f.ClassName,
		ClassVersion: f.ClassVersion,
		Description:  f.Description,
		State:        f.State(),
		LogThreshold: f.LogThreshold(),
	}
	for _, st := range f.States() {
		v.States = append(v.States, stateView{ID: st.ID, Name: st.Name})
	}
	for _, c := range f.Commands() {
		v.Commands = append(v.Commands, nameIDView{ID: c.ID, Name: c.Name})
	}
	for _, p := range f.Properties() {
		v.Properties = append(v.Properties, nameIDView{ID: p.ID, Name: p.Name})
	}
	for _, e := range f.Events() {
		v.Events = append(v.Events, nameIDView{ID: e.ID, Name: e.Name})
	}
	return v
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	features := s.dev.Features()
	views := make([]featureView, 0, len(features))
	for _, f := range features {
		views = append(views, toFeatureView(f))
	}
	s.writeJSON(w, r, views)
}

func (s *Server) handleFeature(w http.ResponseWriter, r *http.Request) {
	id, err := parseFeatureID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid feature id", http.StatusBadRequest)
		return
	}

	f, ok := s.dev.Feature(id)
	if !ok {
		http.Error(w, "feature not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, r, toFeatureView(f))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
	}
}

func parseFeatureID(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}
