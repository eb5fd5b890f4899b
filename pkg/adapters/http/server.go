package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/reflex"
	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/ports"
)

// maxBody bounds request bodies (rule text and event payloads).
const maxBody = 1 << 20

// Server exposes a ports.Controller over HTTP.
type Server struct {
	Engine   ports.Controller
	Source   ports.RuleSource
	Streams  *StreamManager
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithSource enables POST /rules/reload, which loads text from src.
func WithSource(src ports.RuleSource) Option {
	return func(s *Server) {
		s.Source = src
	}
}

// WithStreams shares an event stream, typically one whose Hooks feed the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithGatherer sets the registry served on /metrics (default prometheus.DefaultGatherer).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for engine.
func NewServer(engine ports.Controller, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Streams:  NewStreamManager(),
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine ports.Controller, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/rules", func(r chi.Router) {
		r.Get("/", s.GetRules)
		r.Put("/", s.PutRules)
		r.Post("/reload", s.ReloadRules)
	})

	r.Route("/memory", func(r chi.Router) {
		r.Get("/", s.GetMemory)
		r.Delete("/", s.ResetMemory)
		r.Delete("/history", s.ClearHistory)
		r.Get("/{name}", s.GetParam)
		r.Put("/{name}", s.PutParam)
		r.Get("/{name}/history", s.GetParamHistory)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.SubscribeEvents)
		r.Post("/asr", s.PostAsr)
		r.Post("/wakeup", s.PostWakeup)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RulesResponse describes the running rule set.
type RulesResponse struct {
	Text  string   `json:"text"`
	Rules []string `json:"rules"`
}

// ReloadResponse reports the outcome of a reload.
type ReloadResponse struct {
	Accepted int      `json:"accepted"`
	Skipped  []string `json:"skipped,omitempty"`
}

// ParamResponse is one state parameter.
type ParamResponse struct {
	Name  string       `json:"name"`
	Value domain.Value `json:"value"`
}

// ParamRequest sets one state parameter.
type ParamRequest struct {
	Value domain.Value `json:"value"`
}

// AsrRequest carries a speech recognition result.
type AsrRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "reflex-http",
		"version": strings.TrimSpace(reflex.Version),
	})
}

// GetRules handles GET /rules.
func (s *Server) GetRules(w http.ResponseWriter, r *http.Request) {
	rules := s.Engine.Rules()
	resp := RulesResponse{Text: s.Engine.RuleText(), Rules: make([]string, len(rules))}
	for i, rule := range rules {
		resp.Rules[i] = rule.String()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// PutRules handles PUT /rules. The body is raw rule text.
func (s *Server) PutRules(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.reload(w, string(body))
}

// ReloadRules handles POST /rules/reload, pulling text from the configured source.
func (s *Server) ReloadRules(w http.ResponseWriter, r *http.Request) {
	if s.Source == nil {
		http.Error(w, "No rule source configured", http.StatusNotFound)
		return
	}
	text, err := s.Source.Load(r.Context())
	if err != nil {
		s.logger.Error("Rule source load failed", "err", err)
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusBadGateway)
		return
	}
	s.reload(w, text)
}

func (s *Server) reload(w http.ResponseWriter, text string) {
	rules, _ := reflex.Validate(text)
	resp := ReloadResponse{Accepted: len(rules)}
	for _, e := range unwrapAll(s.Engine.Reload(text)) {
		resp.Skipped = append(resp.Skipped, e.Error())
	}

	s.logger.Info("Rules replaced over HTTP", "accepted", resp.Accepted, "skipped", len(resp.Skipped))
	s.Streams.Broadcast(EventReload, resp)
	s.writeJSON(w, http.StatusAccepted, resp)
}

// GetMemory handles GET /memory.
func (s *Server) GetMemory(w http.ResponseWriter, r *http.Request) {
	state, err := s.Engine.Memory().GetState(r.Context())
	if err != nil {
		s.fail(w, "GetState", err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// GetParam handles GET /memory/{name}.
func (s *Server) GetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok, err := s.Engine.Memory().GetStateParam(r.Context(), name)
	if err != nil {
		s.fail(w, "GetStateParam", err)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("Parameter %q not set", name), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, ParamResponse{Name: name, Value: v})
}

// PutParam handles PUT /memory/{name}.
func (s *Server) PutParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body ParamRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PutParam: Invalid request body", "err", err)
		return
	}
	if err := s.Engine.Memory().SetStateParam(r.Context(), name, body.Value); err != nil {
		s.fail(w, "SetStateParam", err)
		return
	}
	s.Streams.Broadcast(EventMemory, ParamResponse{Name: name, Value: body.Value})
	s.writeJSON(w, http.StatusOK, ParamResponse{Name: name, Value: body.Value})
}

// GetParamHistory handles GET /memory/{name}/history?start=&end= (RFC 3339 bounds).
func (s *Server) GetParamHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	window, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, ok, err := s.Engine.Memory().GetStateParamHistory(r.Context(), name, window)
	if err != nil {
		s.fail(w, "GetStateParamHistory", err)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("Parameter %q not set", name), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// ClearHistory handles DELETE /memory/history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Memory().ClearHistory(r.Context()); err != nil {
		s.fail(w, "ClearHistory", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetMemory handles DELETE /memory.
func (s *Server) ResetMemory(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Memory().Reset(r.Context()); err != nil {
		s.fail(w, "Reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostAsr handles POST /events/asr.
func (s *Server) PostAsr(w http.ResponseWriter, r *http.Request) {
	var body AsrRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostAsr: Invalid request body", "err", err)
		return
	}
	if err := s.Engine.OnAsrResult(r.Context(), body.Text, body.Language); err != nil {
		s.fail(w, "OnAsrResult", err)
		return
	}
	s.Streams.Broadcast(EventAsr, body)
	w.WriteHeader(http.StatusNoContent)
}

// PostWakeup handles POST /events/wakeup.
func (s *Server) PostWakeup(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.OnWakeupWord(r.Context()); err != nil {
		s.fail(w, "OnWakeupWord", err)
		return
	}
	s.Streams.Broadcast(EventWakeup, map[string]string{})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "err", err)
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func parseWindow(r *http.Request) (domain.Window, error) {
	var w domain.Window
	for key, dst := range map[string]**time.Time{"start": &w.Start, "end": &w.End} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return w, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = &t
	}
	return w, nil
}

func unwrapAll(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
