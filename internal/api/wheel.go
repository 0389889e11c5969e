package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/mischief-wheel/internal/identity"
	"github.com/ashureev/mischief-wheel/internal/wheel"
	"github.com/go-chi/chi/v5"
)

// WheelHandler exposes the wheel session over HTTP.
type WheelHandler struct {
	*Handler
}

// NewWheelHandler creates a new wheel handler.
func NewWheelHandler(base *Handler) *WheelHandler {
	return &WheelHandler{Handler: base}
}

// RegisterRoutes registers wheel routes.
func (h *WheelHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/challenges", h.GetChallenges)
		r.Route("/wheel", func(r chi.Router) {
			r.Get("/", h.GetWheel)
			r.Delete("/", h.Reset)
			r.Post("/spin", h.Spin)
			r.Post("/complete", h.Complete)
			r.Post("/skip", h.Skip)
		})
	})
}

// GetChallenges returns the challenge list with its wheel layout.
func (h *WheelHandler) GetChallenges(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"challenges":   h.set.All(),
		"segments":     wheel.Layout(h.set),
		"segment_size": wheel.SegmentSize(h.set.Len()),
	})
}

// GetWheel returns the caller's current snapshot.
func (h *WheelHandler) GetWheel(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.controller(r).Snapshot())
}

// Spin starts a spin. The result lands after the spin delay.
func (h *WheelHandler) Spin(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r)
	snap, err := c.Spin()
	if err != nil {
		h.writeTransitionError(w, r, "spin", err, snap)
		return
	}
	JSON(w, http.StatusAccepted, snap)
}

// Complete dismisses the shown challenge as done.
func (h *WheelHandler) Complete(w http.ResponseWriter, r *http.Request) {
	snap, err := h.controller(r).Complete()
	if err != nil {
		h.writeTransitionError(w, r, "complete", err, snap)
		return
	}
	JSON(w, http.StatusOK, snap)
}

// Skip dismisses the shown challenge without doing it.
func (h *WheelHandler) Skip(w http.ResponseWriter, r *http.Request) {
	snap, err := h.controller(r).Skip()
	if err != nil {
		h.writeTransitionError(w, r, "skip", err, snap)
		return
	}
	JSON(w, http.StatusOK, snap)
}

// Reset tears down the caller's session; the next request starts fresh.
func (h *WheelHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	closed := h.sm.Close(userID, sessionID)
	JSON(w, http.StatusOK, map[string]bool{"closed": closed})
}

func (h *WheelHandler) controller(r *http.Request) *wheel.Controller {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	return h.sm.GetOrCreate(userID, sessionID)
}

func (h *WheelHandler) writeTransitionError(w http.ResponseWriter, r *http.Request, action string, err error, snap wheel.Snapshot) {
	switch {
	case errors.Is(err, wheel.ErrSpinRejected), errors.Is(err, wheel.ErrNoChallenge):
		JSON(w, http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
			"wheel": snap,
		})
	case errors.Is(err, wheel.ErrClosed):
		// The session was swept between lookup and use.
		Error(w, http.StatusGone, err.Error())
	default:
		slog.Error("Wheel transition failed",
			"action", action,
			"error", err,
			"user_id", identity.UserIDFromContext(r.Context()))
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
