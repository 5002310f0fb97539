package plafonds

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nusalend/nusalend/internal/authz"
	"github.com/nusalend/nusalend/internal/masterdata/shared"
	"github.com/nusalend/nusalend/internal/platform/httpx"
	appshared "github.com/nusalend/nusalend/internal/shared"
)

// Handler manages plafond endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

// MountRoutes registers plafond routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermReadPlafond))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermCreatePlafond))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermUpdatePlafond))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermDeletePlafond))
		r.Delete("/{id}", h.delete)
	})
}

type plafondRequest struct {
	Name      string  `json:"name"`
	MaxAmount float64 `json:"maxAmount"`
	MaxTenor  int     `json:"maxTenor"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := shared.ListFilters{Search: r.URL.Query().Get("search")}
	filters.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filters.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	plafonds, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if plafonds == nil {
		plafonds = []Plafond{}
	}
	httpx.Success(w, http.StatusOK, map[string]any{
		"items":      plafonds,
		"pagination": appshared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	plafond, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, plafond)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req plafondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	plafond, err := h.service.Create(r.Context(), Plafond{Name: req.Name, MaxAmount: req.MaxAmount, MaxTenor: req.MaxTenor})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusCreated, plafond)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req plafondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.service.Update(r.Context(), id, Plafond{Name: req.Name, MaxAmount: req.MaxAmount, MaxTenor: req.MaxTenor}); err != nil {
		h.respondError(w, r, err)
		return
	}
	plafond, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, plafond)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "plafond not found")
	case errors.Is(err, shared.ErrInvalidID):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid plafond id")
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrRequiredField):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("plafond request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
