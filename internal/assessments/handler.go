package assessments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quotient-crm/quotient/internal/platform/httpx"
	"github.com/quotient-crm/quotient/internal/shared"
)

const maxPhotoBytes = 16 << 20

// Handler exposes assessments over HTTP.
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
	case errors.Is(err, ErrNotInProgress), errors.Is(err, ErrNotCompleted):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("assessment request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	var req CreateAssessmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	a, err := h.service.Create(r.Context(), *actor, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assessment id")
		return
	}
	a, err := h.service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	req := ListAssessmentsRequest{CompanyID: actor.CompanyID}

	if status := r.URL.Query().Get("status"); status != "" {
		s := Status(status)
		req.Status = &s
	}
	if lead := r.URL.Query().Get("lead_id"); lead != "" {
		if id, err := strconv.ParseInt(lead, 10, 64); err == nil {
			req.LeadID = &id
		}
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assessments": list, "total": total})
}

func (h *Handler) statusHandler(fn func(*http.Request, shared.Actor, int64) (*Assessment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := shared.ActorFromContext(r.Context())
		id, err := urlID(r, "id")
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assessment id")
			return
		}
		a, err := fn(r, *actor, id)
		if err != nil {
			h.respondErr(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, a)
	}
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.statusHandler(func(r *http.Request, actor shared.Actor, id int64) (*Assessment, error) {
		return h.service.Start(r.Context(), actor, id)
	})(w, r)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.statusHandler(func(r *http.Request, actor shared.Actor, id int64) (*Assessment, error) {
		return h.service.Complete(r.Context(), actor, id)
	})(w, r)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.statusHandler(func(r *http.Request, actor shared.Actor, id int64) (*Assessment, error) {
		return h.service.Cancel(r.Context(), actor, id)
	})(w, r)
}

func (h *Handler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assessment id")
		return
	}
	itemID, err := urlID(r, "itemID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	var req RecordResponseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.RecordResponse(r.Context(), *actor, id, itemID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assessment id")
		return
	}
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing photo file")
		return
	}
	defer file.Close()

	req := AttachPhotoRequest{Filename: header.Filename}
	if caption := r.FormValue("caption"); caption != "" {
		req.Caption = &caption
	}
	if item := r.FormValue("item_id"); item != "" {
		if itemID, err := strconv.ParseInt(item, 10, 64); err == nil {
			req.ItemID = &itemID
		}
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p, err := h.service.AttachPhoto(r.Context(), *actor, id, req, file)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) GenerateQuotation(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid assessment id")
		return
	}
	var req GenerateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	q, err := h.service.GenerateQuotation(r.Context(), *actor, id, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}
