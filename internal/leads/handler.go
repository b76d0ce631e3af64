package leads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quotient-crm/quotient/internal/platform/httpx"
	"github.com/quotient-crm/quotient/internal/shared"
)

// Handler exposes leads over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	default:
		h.logger.Error("lead request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	var req CreateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	lead, err := h.service.Create(r.Context(), *actor, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := h.parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid lead id")
		return
	}
	lead, err := h.service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := h.parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid lead id")
		return
	}
	var req UpdateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	lead, err := h.service.Update(r.Context(), *actor, id, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	req := ListLeadsRequest{CompanyID: actor.CompanyID}

	if status := r.URL.Query().Get("status"); status != "" {
		s := Status(status)
		req.Status = &s
	}
	if assigned := r.URL.Query().Get("assigned_to"); assigned != "" {
		if id, err := strconv.ParseInt(assigned, 10, 64); err == nil {
			req.AssignedTo = &id
		}
	}
	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			req.DateFrom = &t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			req.DateTo = &t
		}
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leads": list, "total": total})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := h.parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid lead id")
		return
	}
	if err := h.service.Delete(r.Context(), *actor, id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transitionHandler(fn func(*http.Request, shared.Actor, int64) (*Lead, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := shared.ActorFromContext(r.Context())
		id, err := h.parseID(r)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid lead id")
			return
		}
		lead, err := fn(r, *actor, id)
		if err != nil {
			h.respondErr(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, lead)
	}
}

func (h *Handler) MarkContacted(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, actor shared.Actor, id int64) (*Lead, error) {
		return h.service.MarkAsContacted(r.Context(), actor, id)
	})(w, r)
}

func (h *Handler) MarkQuoted(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, actor shared.Actor, id int64) (*Lead, error) {
		return h.service.MarkAsQuoted(r.Context(), actor, id)
	})(w, r)
}

func (h *Handler) MarkWon(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, actor shared.Actor, id int64) (*Lead, error) {
		return h.service.MarkAsWon(r.Context(), actor, id)
	})(w, r)
}

func (h *Handler) MarkLost(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := h.parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid lead id")
		return
	}
	var req MarkLostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	lead, err := h.service.MarkAsLost(r.Context(), *actor, id, req.Reason)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) RecordContact(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, actor shared.Actor, id int64) (*Lead, error) {
		return h.service.RecordContact(r.Context(), actor, id)
	})(w, r)
}

func (h *Handler) RecordQuote(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, actor shared.Actor, id int64) (*Lead, error) {
		return h.service.RecordQuote(r.Context(), actor, id)
	})(w, r)
}
