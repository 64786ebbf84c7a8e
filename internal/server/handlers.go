package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dagforge/internal/catalog"
	"dagforge/internal/cron"
	"dagforge/internal/dagconfig"
	logx "dagforge/pkg/logx"
)

type validateCronRequest struct {
	Cron string `json:"cron"`
}

type validateCronResponse struct {
	Valid       bool   `json:"valid"`
	Message     string `json:"message"`
	Field       string `json:"field,omitempty"`
	Token       string `json:"token,omitempty"`
	Description string `json:"description,omitempty"`
}

type generateRequest struct {
	Config  map[string]any   `json:"dag_config"`
	Overlay any              `json:"custom_objects"`
	Tasks   []map[string]any `json:"tasks"`
	Format  string           `json:"format"`
}

type generateResponse struct {
	Success      bool               `json:"success"`
	Config       string             `json:"config,omitempty"`
	ConfigObject dagconfig.Document `json:"config_object,omitempty"`
	Errors       []string           `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) (int, error) {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return 0, nil
		case errors.As(err, &tooLarge):
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		default:
			return http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
		}
	}
	return 0, nil
}

func (s *Server) handleValidateCron(w http.ResponseWriter, r *http.Request) {
	var req validateCronRequest
	if status, err := decodeBody(r, &req); err != nil {
		writeJSON(w, status, validateCronResponse{Message: err.Error()})
		return
	}

	expr := strings.TrimSpace(req.Cron)
	if err := cron.ValidateSchedule(expr); err != nil {
		s.metrics.cronValidations.WithLabelValues("invalid").Inc()
		resp := validateCronResponse{Message: err.Error()}
		if fe, ok := cron.AsFieldError(err); ok {
			resp.Field, resp.Token = fe.Field, fe.Token
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	s.metrics.cronValidations.WithLabelValues("valid").Inc()
	resp := validateCronResponse{Valid: true, Message: "valid cron expression"}
	if cron.IsPreset(expr) {
		resp.Message = "valid schedule preset"
	} else if desc, err := cron.Describe(expr); err == nil {
		resp.Description = desc
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateConfig(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if status, err := decodeBody(r, &req); err != nil {
		s.metrics.configGenerations.WithLabelValues("bad_request").Inc()
		writeJSON(w, status, generateResponse{Errors: []string{err.Error()}})
		return
	}
	log := s.log.With(logx.String("request_id", r.Header.Get(headerRequestID)))

	reject := func(errs []string) {
		s.metrics.configGenerations.WithLabelValues("rejected").Inc()
		s.metrics.validationErrors.Add(float64(len(errs)))
		log.Info("config rejected", logx.Int("errors", len(errs)))
		writeJSON(w, http.StatusOK, generateResponse{Errors: errs})
	}

	format, err := dagconfig.ParseFormat(req.Format)
	if err != nil {
		reject([]string{err.Error()})
		return
	}
	overlay, err := dagconfig.ParseOverlay(req.Overlay)
	if err != nil {
		reject([]string{err.Error()})
		return
	}

	doc, errs := dagconfig.Generate(dagconfig.Request{
		Config:  req.Config,
		Overlay: overlay,
		Tasks:   req.Tasks,
	}, s.builderOptions()...)
	if len(errs) > 0 {
		reject(errs)
		return
	}

	text, err := dagconfig.Render(doc, format)
	if err != nil {
		s.metrics.configGenerations.WithLabelValues("error").Inc()
		log.Error("render config failed", logx.Err(err))
		writeJSON(w, http.StatusInternalServerError, generateResponse{Errors: []string{"internal error: " + err.Error()}})
		return
	}

	s.metrics.configGenerations.WithLabelValues("success").Inc()
	log.Debug("config generated", logx.Any("dag_id", doc["dag_id"]), logx.String("format", string(format)))
	writeJSON(w, http.StatusOK, generateResponse{Success: true, Config: text, ConfigObject: doc})
}

func (s *Server) handleTaskTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.TaskTemplates())
}

func (s *Server) handleCronOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.CronOptions())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.health != nil {
		body["goroutines"] = s.health()
	}
	writeJSON(w, http.StatusOK, body)
}
