package session

import "github.com/go-chi/chi/v5"

// Routes mounts the quote session endpoints on r. Write middleware guards
// session creation and dispatch; dispatch middleware runs only on actions.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{sessionID}", h.Get)
	r.Group(func(w chi.Router) {
		w.Use(h.writeMW...)
		w.Post("/", h.Create)
		w.With(h.dispatchMW...).Post("/{sessionID}/actions", h.Dispatch)
	})
}
