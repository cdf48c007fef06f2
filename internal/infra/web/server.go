package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"storefront-payments/internal/domain"
	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/flow"
	"storefront-payments/internal/infra/metrics"
)

// Server exposes the payment session API the mobile client reports its OS
// events through.
type Server struct {
	registry *flow.Registry
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(registry *flow.Registry, auth *AuthManager, log *zerolog.Logger) *Server {
	return &Server{registry: registry, auth: auth, log: log}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/events/deeplink", s.handleDeepLink)
			r.Post("/events/app-state", s.handleAppState)
			r.Post("/cancel", s.handleCancel)
			r.Post("/exit", s.handleExit)
			r.Post("/retry", s.handleRetry)
		})
	})
	return r
}

type createRequest struct {
	PaymentType string `json:"payment_type"`
	PaymentID   string `json:"payment_id"`
	Method      string `json:"method"`
	PayURL      string `json:"pay_url"`
	Platform    string `json:"platform"`
	Locale      string `json:"locale"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Token     string `json:"token,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	o, err := s.registry.Create(r.Context(), flow.SessionParams{
		PaymentType: model.PaymentType(req.PaymentType),
		PaymentID:   req.PaymentID,
		Method:      model.PaymentMethod(req.Method),
		PayURL:      req.PayURL,
		Platform:    model.Platform(req.Platform),
		Locale:      req.Locale,
	})
	if err != nil && errors.Is(err, domain.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Opening errors (bad pay URL, device cannot open) already routed the
	// session to the error screen; the client still gets the session so it
	// can inspect the failed state and retry.
	sess := o.Session()
	metrics.LiveSessions.Set(float64(s.registry.Len()))

	token, mintErr := s.auth.Mint(sess.ID)
	if mintErr != nil {
		s.log.Error().Err(mintErr).Msg("session token mint failed")
		writeError(w, http.StatusInternalServerError, "token mint failed")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.ID,
		Status:    string(sess.Status),
		Token:     token,
	})
}

// requireSession checks the bearer token and that it was minted for the
// session in the path.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if claims.SessionID != chi.URLParam(r, "id") {
			writeError(w, http.StatusForbidden, "token does not match session")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*flow.Orchestrator, bool) {
	o, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return o, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	o, ok := s.session(w, r)
	if !ok {
		return
	}
	sess := o.Session()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":         sess.ID,
		"payment_type":       sess.PaymentType,
		"payment_id":         sess.PaymentID,
		"method":             sess.Method,
		"status":             sess.Status,
		"has_opened_payment": sess.HasOpenedPayment,
		"updated_at":         sess.UpdatedAt,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.registry.Remove(chi.URLParam(r, "id"))
	metrics.LiveSessions.Set(float64(s.registry.Len()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeepLink(w http.ResponseWriter, r *http.Request) {
	o, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	kind := o.HandleDeepLink(body.URL)
	metrics.DeepLinksTotal.WithLabelValues(string(kind)).Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"kind":   string(kind),
		"status": string(o.Session().Status),
	})
}

func (s *Server) handleAppState(w http.ResponseWriter, r *http.Request) {
	o, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.State == "" {
		writeError(w, http.StatusBadRequest, "state is required")
		return
	}
	o.HandleAppState(body.State)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Session().Status)})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	o, ok := s.session(w, r)
	if !ok {
		return
	}
	o.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Session().Status)})
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	o, ok := s.session(w, r)
	if !ok {
		return
	}
	o.ConfirmExit()
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Session().Status)})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	o, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := o.Retry(); err != nil {
		switch {
		case errors.Is(err, domain.ErrTerminalState):
			writeError(w, http.StatusConflict, "session already completed")
			return
		case errors.Is(err, domain.ErrCheckInProgress):
			writeError(w, http.StatusConflict, "status check in progress")
			return
		case errors.Is(err, domain.ErrSessionClosed):
			writeError(w, http.StatusGone, "session closed")
			return
		}
		// Open failures leave the session failed; report the state as-is.
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Session().Status)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
