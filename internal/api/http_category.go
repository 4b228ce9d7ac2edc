package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bakery-admin-service/internal/domain"
)

// CategoryInput defines the expected input for creating or updating a
// category.
type CategoryInput struct {
	CategoryName string `json:"categoryName" validate:"required,max=100"`
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	created, err := h.categories.CreateCategory(r.Context(), &domain.Category{CategoryName: input.CategoryName})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create category")
		return
	}

	respondWithData(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve categories")
		return
	}
	respondWithData(w, http.StatusOK, categories)
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categories.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve category")
		return
	}
	respondWithData(w, http.StatusOK, category)
}

func (h *HTTPHandler) GetCategoryByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "categoryName")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	category, err := h.categories.GetCategoryByName(r.Context(), name)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve category")
		return
	}
	respondWithData(w, http.StatusOK, category)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	updated, err := h.categories.UpdateCategory(r.Context(), &domain.Category{
		CategoryID:   categoryID,
		CategoryName: input.CategoryName,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update category")
		return
	}
	respondWithData(w, http.StatusOK, updated)
}

// DeleteCategory removes the category. Products that referenced it survive
// with their category cleared.
func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.categories.DeleteCategory(r.Context(), categoryID); err != nil {
		respondWithServiceError(w, err, "Failed to delete category")
		return
	}
	respondWithMessage(w, http.StatusOK, "category deleted")
}

func (h *HTTPHandler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if _, err := h.categories.GetCategoryByID(r.Context(), categoryID); err != nil {
		respondWithServiceError(w, err, "Failed to retrieve category")
		return
	}

	products, err := h.categories.ListProductsByCategory(r.Context(), categoryID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve category products")
		return
	}
	respondWithData(w, http.StatusOK, products)
}
