package loan

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nusalend/nusalend/internal/authz"
	"github.com/nusalend/nusalend/internal/platform/httpx"
)

// Handler manages loan endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	reports  *Reports
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, reports *Reports, mw authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		reports:  reports,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		authz:    mw,
	}
}

// MountRoutes registers loan routes. Action endpoints only require an
// authenticated session; the workflow engine itself authorizes the specific
// transition against the principal's permission snapshot.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermReadLoan))
		r.Get("/", h.list)
		r.Get("/{id}", h.detail)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermCreateLoan))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAuthenticated())
		r.Post("/{id}/review", h.review)
		r.Post("/{id}/approval", h.approval)
		r.Post("/{id}/disburse", h.disburse)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermReadReport))
		r.Get("/report/applications-by-status", h.applicationsByStatus)
		r.Get("/report/disbursement-trends", h.disbursementTrends)
		r.Get("/report/best-selling-products", h.bestSellingProducts)
		r.Get("/report/dashboard-summary", h.dashboardSummary)
	})
}

type createRequest struct {
	ProductID     int64   `json:"productId" validate:"required,gt=0"`
	PrincipalDebt float64 `json:"principalDebt" validate:"required,gt=0"`
	Tenor         int     `json:"tenor" validate:"required,gte=1"`
}

type actionRequest struct {
	Action string `json:"action"`
	Note   string `json:"note"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{Status: Status(r.URL.Query().Get("status"))}
	apps, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if apps == nil {
		apps = []LoanApplication{}
	}
	httpx.Success(w, http.StatusOK, apps)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	httpx.Success(w, http.StatusOK, struct {
		Detail
		AvailableActions []Action `json:"availableActions"`
	}{Detail: detail, AvailableActions: h.service.AvailableActions(detail.Loan, principal)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	app, err := h.service.Create(r.Context(), principal, CreateInput{
		ProductID:     req.ProductID,
		PrincipalDebt: req.PrincipalDebt,
		Tenor:         req.Tenor,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusCreated, app)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, ActionReview)
}

// approval carries the approve/reject choice in the body; both verbs map to
// the REVIEWED source status and the APPROVE_LOAN permission. Only the
// canonical verbs are accepted, status names are not action aliases.
func (h *Handler) approval(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	action, ok := parseApprovalAction(req.Action)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "action must be APPROVE or REJECT")
		return
	}
	h.applyTo(w, r, id, action, req.Note)
}

func parseApprovalAction(raw string) (Action, bool) {
	switch raw {
	case string(ActionApprove):
		return ActionApprove, true
	case string(ActionReject):
		return ActionReject, true
	default:
		return "", false
	}
}

func (h *Handler) disburse(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, ActionDisburse)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, action Action) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	h.applyTo(w, r, id, action, req.Note)
}

func (h *Handler) applyTo(w http.ResponseWriter, r *http.Request, id uuid.UUID, action Action, note string) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	app, err := h.service.Apply(r.Context(), principal, id, action, note)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, app)
}

func (h *Handler) applicationsByStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.ApplicationsByStatus(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, stats)
}

func (h *Handler) disbursementTrends(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.DisbursementTrends(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, stats)
}

func (h *Handler) bestSellingProducts(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.BestSellingProducts(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, stats)
}

func (h *Handler) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.DashboardSummary(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Success(w, http.StatusOK, summary)
}

func (h *Handler) loanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid loan id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "loan application not found")
	case errors.Is(err, ErrUnknownTransition):
		httpx.Problem(w, http.StatusBadRequest, "Unknown Transition", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ErrPermissionDenied):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("loan request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
