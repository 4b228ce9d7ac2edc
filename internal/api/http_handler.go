// Package api exposes the admin backend over HTTP: product, category, tag,
// admin and order endpoints behind JWT auth, with a uniform response
// envelope.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bakery-admin-service/internal/catalog"
	"bakery-admin-service/internal/config"
	"bakery-admin-service/internal/imaging"
	"bakery-admin-service/internal/store"
)

// Pinger is the connectivity probe used by the health endpoint. *sql.DB
// satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categories store.CategoryStorer
	products   store.ProductStorer
	tags       store.TagStorer
	admins     store.AdminStorer
	orders     store.OrderStorer
	catalog    *catalog.Service
	db         Pinger
	authCfg    config.AuthConfig
	uploadCfg  config.UploadConfig
	validate   *validator.Validate
}

// Stores bundles the storage interfaces the handler depends on.
type Stores struct {
	Categories store.CategoryStorer
	Products   store.ProductStorer
	Tags       store.TagStorer
	Admins     store.AdminStorer
	Orders     store.OrderStorer
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(s Stores, svc *catalog.Service, db Pinger, authCfg config.AuthConfig, uploadCfg config.UploadConfig) *HTTPHandler {
	return &HTTPHandler{
		categories: s.Categories,
		products:   s.Products,
		tags:       s.Tags,
		admins:     s.Admins,
		orders:     s.Orders,
		catalog:    svc,
		db:         db,
		authCfg:    authCfg,
		uploadCfg:  uploadCfg,
		validate:   validator.New(),
	}
}

// --- Helpers ---

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// paginatedData wraps a list payload with its pagination info.
type paginatedData struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

func respondWithData(w http.ResponseWriter, code int, data interface{}) {
	respondWithJSON(w, code, apiResponse{Success: true, Data: data})
}

func respondWithMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, apiResponse{Success: true, Message: message})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, apiResponse{Success: false, Error: message})
}

// respondWithServiceError maps known sentinel errors onto HTTP statuses:
// validation and tag policy 400, not found 404, uniqueness conflicts 409,
// everything else 500 with the fallback message.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case catalog.IsValidation(err),
		errors.Is(err, imaging.ErrUnsupportedType),
		errors.Is(err, store.ErrInsufficientStock):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrTagNotFound),
		errors.Is(err, store.ErrOptionNotFound),
		errors.Is(err, store.ErrAdminNotFound),
		errors.Is(err, store.ErrOrderNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrCategoryNameExists),
		errors.Is(err, store.ErrProductIDExists),
		errors.Is(err, store.ErrUsernameExists),
		errors.Is(err, store.ErrTagAlreadyAttached),
		errors.Is(err, store.ErrTagInUse):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("ERROR: %s: %v", fallback, err)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// parseListParams reads page/pageSize query parameters with defaults and a
// page size cap.
func parseListParams(r *http.Request) store.ListParams {
	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	return store.ListParams{Page: page, PageSize: pageSize}
}

func paginate(items interface{}, params store.ListParams, totalCount int) paginatedData {
	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + params.PageSize - 1) / params.PageSize
	}
	return paginatedData{
		Items:      items,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalItems: totalCount,
		TotalPages: totalPages,
	}
}

// pathID parses a positive int64 path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Health ---

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			log.Printf("ERROR: Health check database ping failed: %v", err)
			respondWithError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	respondWithData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service. Reads are public;
// the admin login is public; every mutating route requires a valid admin
// token.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/admins/login", h.Login)

		// Public reads.
		r.Get("/products", h.ListProducts)
		r.Get("/products/name/{productName}", h.GetProductByName)
		r.Get("/products/{productId}", h.GetProductByID)
		r.Get("/products/{productId}/tags", h.ListProductTags)
		r.Get("/products/{productId}/tags/{tagId}/options", h.ListProductTagOptions)
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/name/{categoryName}", h.GetCategoryByName)
		r.Get("/categories/{categoryId}", h.GetCategoryByID)
		r.Get("/categories/{categoryId}/products", h.ListProductsByCategory)
		r.Get("/tags", h.ListTags)
		r.Get("/tags/{tagId}", h.GetTagByID)
		r.Get("/tags/{tagId}/options", h.ListTagOptions)

		// Admin-only routes.
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{productId}", h.UpdateProduct)
			r.Delete("/products/{productId}", h.DeleteProduct)
			r.Patch("/products/{productId}/stock", h.UpdateStock)
			r.Post("/products/{productId}/tags", h.AddProductTags)
			r.Delete("/products/{productId}/tags", h.RemoveProductTags)
			r.Delete("/products/{productId}/tags/{tagId}/options/{optionId}", h.RemoveProductTagOption)

			r.Post("/categories", h.CreateCategory)
			r.Put("/categories/{categoryId}", h.UpdateCategory)
			r.Delete("/categories/{categoryId}", h.DeleteCategory)

			r.Post("/tags", h.CreateTag)
			r.Put("/tags/{tagId}", h.UpdateTag)
			r.Delete("/tags/{tagId}", h.DeleteTag)
			r.Post("/tags/{tagId}/options", h.CreateTagOption)
			r.Delete("/tags/{tagId}/options/{optionId}", h.DeleteTagOption)

			r.Post("/admins", h.CreateAdmin)
			r.Get("/admins", h.ListAdmins)
			r.Get("/admins/{adminId}", h.GetAdminByID)
			r.Put("/admins/{adminId}", h.UpdateAdmin)
			r.Delete("/admins/{adminId}", h.DeleteAdmin)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{orderId}", h.GetOrderByID)
			r.Patch("/orders/{orderId}/status", h.UpdateOrderStatus)
		})
	})
}
