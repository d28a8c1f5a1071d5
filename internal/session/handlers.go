package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-quote/internal/common"
	"github.com/noah-isme/backend-quote/internal/quote"
)

// Handler exposes quote sessions over HTTP.
type Handler struct {
	registry   *Registry
	validate   *validator.Validate
	writeMW    []func(http.Handler) http.Handler
	dispatchMW []func(http.Handler) http.Handler
}

// HandlerConfig wires the HTTP handler dependencies.
type HandlerConfig struct {
	Registry  *Registry
	Validator *validator.Validate
	// WriteMiddleware wraps Create and Dispatch.
	WriteMiddleware []func(http.Handler) http.Handler
	// DispatchMiddleware wraps Dispatch only.
	DispatchMiddleware []func(http.Handler) http.Handler
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Handler{
		registry:   cfg.Registry,
		validate:   v,
		writeMW:    cfg.WriteMiddleware,
		dispatchMW: cfg.DispatchMiddleware,
	}
}

type sessionParams struct {
	SessionID string `validate:"required,uuid"`
	Product   string `validate:"omitempty,max=64"`
}

type actionRequest struct {
	Type    string          `json:"type" validate:"required,max=64"`
	Payload json.RawMessage `json:"payload"`
}

// Create starts a new session and hydrates it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session registry not configured", nil)
		return
	}
	product := strings.TrimSpace(r.URL.Query().Get("product"))
	if err := h.validate.Var(product, "omitempty,max=64"); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid product", nil)
		return
	}
	id := uuid.NewString()
	p, release := h.registry.Acquire(id)
	defer release()
	q, _ := p.Hydrate(r.Context(), product)
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"sessionId": id,
			"quote":     q,
		},
	})
}

// Get hydrates the session on first access and returns the current quote.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, release, params, ok := h.provider(w, r)
	if !ok {
		return
	}
	defer release()
	q, hydrated := p.Hydrate(r.Context(), params.Product)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": q,
		"meta": map[string]any{"sessionId": p.ID(), "hydrated": hydrated},
	})
}

// Dispatch applies one action to the session quote.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	p, release, _, ok := h.provider(w, r)
	if !ok {
		return
	}
	defer release()
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeValidation(w, err)
		return
	}
	action, err := quote.ParseAction(req.Type, req.Payload)
	if err != nil {
		common.WriteError(w, common.NewAppError("INVALID_PAYLOAD", "invalid action payload", http.StatusBadRequest, err))
		return
	}
	p.Hydrate(r.Context(), "")
	q := p.Dispatch(r.Context(), action)
	common.Data(w, http.StatusOK, q)
}

// provider resolves and pins the session named in the URL; the caller must release it.
func (h *Handler) provider(w http.ResponseWriter, r *http.Request) (*Provider, func(), sessionParams, bool) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session registry not configured", nil)
		return nil, nil, sessionParams{}, false
	}
	params := sessionParams{
		SessionID: strings.TrimSpace(chi.URLParam(r, "sessionID")),
		Product:   strings.TrimSpace(r.URL.Query().Get("product")),
	}
	if err := h.validate.Struct(params); err != nil {
		h.writeValidation(w, err)
		return nil, nil, params, false
	}
	p, release := h.registry.Acquire(params.SessionID)
	return p, release, params, true
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		common.WriteError(w, common.BadRequest("BAD_REQUEST", "invalid request", nil))
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	common.WriteError(w, common.BadRequest("VALIDATION_FAILED", "request validation failed", fields))
}
