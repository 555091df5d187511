package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/auth"
	"pharmapos/m/internal/catalog"
	"pharmapos/m/internal/clients"
	"pharmapos/m/internal/dashboard"
	"pharmapos/m/internal/ledger"
	"pharmapos/m/internal/sales"
)

// Services are the components the HTTP API exposes.
type Services struct {
	Catalog    *catalog.Catalog
	Ledger     *ledger.Ledger
	Sales      *sales.Recorder
	Clients    *clients.Directory
	Auth       *auth.Service
	Tokens     *auth.Tokens
	Dashboard  *dashboard.Dashboard
	ExpiryDays int
	// Location resolves bare YYYY-MM-DD query dates. Nil means time.Local.
	Location   *time.Location
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	Services
	log      *zap.Logger
	validate *validator.Validate
	origins  []string
}

// New constructs a Handler. origins lists the browser origins allowed by CORS.
func New(svc Services, log *zap.Logger, origins ...string) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Handler{Services: svc, log: log.Named("http"), validate: v, origins: origins}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.With(h.requireRole(domain.RoleAdmin)).Post("/staff", h.createStaff)

		pr.Route("/products", func(r chi.Router) {
			r.Get("/", h.searchProducts)
			r.Post("/", h.addProduct)
			r.Get("/low-stock", h.lowStock)
			r.Get("/{id}", h.getProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.removeProduct)
			r.Get("/{id}/lots", h.productLots)
			r.Post("/{id}/lots", h.addLot)
			r.Get("/{id}/availability", h.availability)
			r.With(h.requireRole(domain.RoleAdmin)).Post("/{id}/deplete", h.deplete)
		})

		pr.Route("/lots", func(r chi.Router) {
			r.Get("/expired", h.expiredLots)
			r.Get("/expiring", h.expiringLots)
			r.Get("/expiring-between", h.expiringBetween)
			r.Put("/{id}", h.updateLot)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Post("/", h.recordSale)
			r.Get("/", h.salesInRange)
			r.Get("/{id}", h.getSale)
		})

		pr.Route("/clients", func(r chi.Router) {
			r.Get("/", h.searchClients)
			r.Post("/", h.addClient)
			r.Get("/{id}", h.getClient)
			r.Put("/{id}", h.updateClient)
			r.Get("/{id}/sales", h.clientSales)
		})

		pr.Get("/dashboard", h.dashboard)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error      string             `json:"error"`
	Fields     []fieldError       `json:"fields,omitempty"`
	Shortfalls []domain.Shortfall `json:"shortfalls,omitempty"`
}

// decode reads a JSON body strictly and runs the struct's validate tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r, dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondError(w, http.StatusBadRequest, err.Error())
			return false
		}
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range verrs {
			field := fe.Namespace()
			if i := strings.IndexByte(field, '.'); i >= 0 {
				field = field[i+1:]
			}
			resp.Fields = append(resp.Fields, fieldError{Field: field, Reason: validationMessage(fe)})
		}
		respondJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must have at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "is not a valid email"
	}
	return "is invalid"
}

// fail maps component errors to HTTP statuses. Unexpected errors are logged
// and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr  *domain.ValidationError
		short *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:  verr.Error(),
			Fields: []fieldError{{Field: verr.Field, Reason: verr.Reason}},
		})
	case errors.As(err, &short):
		respondJSON(w, http.StatusConflict, errorResponse{Error: short.Error(), Shortfalls: short.Shortfalls})
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		h.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return n, nil
}

// queryTime accepts RFC 3339 timestamps or YYYY-MM-DD dates. A bare date means
// the start of that day in the pharmacy's location, or its last instant when
// endOfDay is set.
func (h *Handler) queryTime(r *http.Request, name string, endOfDay bool) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, domain.Invalid(name, "is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, domain.Invalid(name, fmt.Sprintf("%q is neither RFC 3339 nor YYYY-MM-DD", raw))
	}
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	start, end := sales.DayBounds(day, loc)
	if endOfDay {
		return end, nil
	}
	return start, nil
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
