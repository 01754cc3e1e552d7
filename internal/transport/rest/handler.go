// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	perrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/service"
	"github.com/abgdnv/gocatalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	MsgFetched = "Products fetched successfully"
	MsgCreated = "Product successfully created"
	MsgUpdated = "Product successfully updated"
	MsgDeleted = "Product successfully deleted"
)

type Handler struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
// Unknown paths and unsupported methods answer with the failure envelope too.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.NotFound(h.RouteNotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadyCheck)
}

// FindAll retrieves a list of all products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request to find all products")
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		h.respondFailure(w, r, mLogger, err, "Failed to fetch products", "")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondSuccess(w, mLogger, http.StatusOK, MsgFetched, list)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var input service.ProductInputDto
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product", "product", input)

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondFailure(w, r, mLogger, err, "Failed to create product", "")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondSuccess(w, mLogger, http.StatusCreated, MsgCreated, created)
}

// Update replaces name, price and image of an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := productID(r)
	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	var input service.ProductInputDto
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.respondFailure(w, r, mLogger, err, fmt.Sprintf("Failed to update product with ID %s", id), id)
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondSuccess(w, mLogger, http.StatusOK, MsgUpdated, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := productID(r)
	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	deleted, err := h.service.DeleteByID(r.Context(), id)
	if err != nil {
		h.respondFailure(w, r, mLogger, err, fmt.Sprintf("Failed to delete product with ID %s", id), id)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", deleted.ID)
	web.RespondSuccess(w, mLogger, http.StatusOK, MsgDeleted, deleted)
}

// RouteNotFound answers requests for paths the catalog does not serve.
func (h *Handler) RouteNotFound(w http.ResponseWriter, r *http.Request) {
	web.RespondError(w, h.loggerWithReqID(r), http.StatusNotFound, "Route not found", fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
}

// MethodNotAllowed answers requests whose path exists but not for the method used.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	web.RespondError(w, h.loggerWithReqID(r), http.StatusMethodNotAllowed, "Method not allowed", fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path))
}

// HealthCheck is a simple liveness endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadyCheck reports 503 while the store is unreachable.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.loggerWithReqID(r).WarnContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respondFailure maps a service error to its status and writes the failure envelope.
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message, id string) {
	var validationErr *perrors.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
		web.RespondValidationError(w, logger, "Validation failed", validationErr.Error(), validationErr.Fields)
		return
	}

	kind := perrors.KindOf(err)
	switch kind {
	case perrors.KindNotFound:
		logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, logger, kind.HTTPStatus(), fmt.Sprintf("Product with ID %s not found", id), perrors.ErrProductNotFound.Error())
	case perrors.KindInvalidInput:
		logger.WarnContext(r.Context(), "Invalid request", "ID", id, "error", err)
		web.RespondError(w, logger, kind.HTTPStatus(), message, err.Error())
	default:
		logger.ErrorContext(r.Context(), message, "error", err)
		web.RespondError(w, logger, kind.HTTPStatus(), message, "unexpected server error")
	}
}

// productID returns the decoded {id} path segment. chi matches on RawPath when it is set,
// so an escaped id such as "a%2Fb" would otherwise reach the service still encoded.
func productID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
