package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bakery-admin-service/internal/catalog"
	"bakery-admin-service/internal/domain"
	"bakery-admin-service/internal/imaging"
)

// tagSelectionInput mirrors one entry of the `tags` JSON form field.
type tagSelectionInput struct {
	TagID     int64   `json:"tagId" validate:"required,gt=0"`
	OptionIDs []int64 `json:"optionIds" validate:"omitempty,dive,gt=0"`
}

func toSelections(inputs []tagSelectionInput) []domain.TagSelection {
	if len(inputs) == 0 {
		return nil
	}
	selections := make([]domain.TagSelection, 0, len(inputs))
	for _, in := range inputs {
		selections = append(selections, domain.TagSelection{TagID: in.TagID, OptionIDs: in.OptionIDs})
	}
	return selections
}

// parseTagsField decodes the optional `tags` form field, a JSON array of
// {tagId, optionIds} objects.
func (h *HTTPHandler) parseTagsField(raw string) ([]domain.TagSelection, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var inputs []tagSelectionInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrInvalidTagPayload, err)
	}
	for _, in := range inputs {
		if err := h.validate.Struct(in); err != nil {
			return nil, fmt.Errorf("%w: %v", catalog.ErrInvalidTagPayload, err)
		}
	}
	return toSelections(inputs), nil
}

// spoolUpload checks the declared MIME type, then copies the multipart file
// into the temp directory under a random name. The transform removes the
// temp file on success; if the workflow fails before that, the file stays
// in TempDir.
func (h *HTTPHandler) spoolUpload(file multipart.File, header *multipart.FileHeader) (*catalog.Upload, error) {
	contentType := header.Header.Get("Content-Type")
	if !h.catalog.AllowedImageType(contentType) {
		return nil, fmt.Errorf("%w: %s", imaging.ErrUnsupportedType, contentType)
	}

	if err := os.MkdirAll(h.uploadCfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	tempPath := filepath.Join(h.uploadCfg.TempDir, uuid.NewString()+filepath.Ext(header.Filename))
	dst, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	return &catalog.Upload{
		TempPath:     tempPath,
		OriginalName: header.Filename,
		ContentType:  contentType,
	}, nil
}

// extractUpload pulls the optional `image` part out of an already-parsed
// multipart form.
func (h *HTTPHandler) extractUpload(r *http.Request) (*catalog.Upload, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return h.spoolUpload(file, header)
}

// CreateProduct handles the multipart create form: text fields productName,
// description, price, stock, categoryId, status, tags (JSON), plus an
// optional `image` file part.
func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadCfg.MaxBytes)
	if err := r.ParseMultipartForm(h.uploadCfg.MaxBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid price format")
		return
	}
	// An absent stock field means zero stock.
	var stock64 int64
	if v := r.FormValue("stock"); v != "" {
		stock64, err = strconv.ParseInt(v, 10, 32)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid stock format")
			return
		}
	}
	categoryID, err := strconv.ParseInt(r.FormValue("categoryId"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid categoryId format")
		return
	}

	selections, err := h.parseTagsField(r.FormValue("tags"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	upload, err := h.extractUpload(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid image upload: "+err.Error())
		return
	}

	input := catalog.CreateProductInput{
		Name:       r.FormValue("productName"),
		Price:      price,
		Stock:      int32(stock64),
		CategoryID: categoryID,
		Status:     r.FormValue("status"),
		Tags:       selections,
		Image:      upload,
	}
	if desc := r.FormValue("description"); desc != "" {
		input.Description = &desc
	}

	created, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create product")
		return
	}

	respondWithData(w, http.StatusCreated, created)
}

// UpdateProduct handles the multipart partial-update form. Absent fields are
// left untouched; a new `image` part replaces the stored image.
func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadCfg.MaxBytes)
	if err := r.ParseMultipartForm(h.uploadCfg.MaxBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	var input catalog.UpdateProductInput

	if v := r.FormValue("productName"); v != "" {
		input.Name = &v
	}
	if v := r.FormValue("description"); v != "" {
		input.Description = &v
	}
	if v := r.FormValue("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid price format")
			return
		}
		input.Price = &price
	}
	if v := r.FormValue("stock"); v != "" {
		stock64, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid stock format")
			return
		}
		stock := int32(stock64)
		input.Stock = &stock
	}
	if v := r.FormValue("categoryId"); v != "" {
		categoryID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid categoryId format")
			return
		}
		input.CategoryID = &categoryID
	}
	if v := r.FormValue("status"); v != "" {
		input.Status = &v
	}

	upload, err := h.extractUpload(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid image upload: "+err.Error())
		return
	}
	input.Image = upload

	updated, err := h.catalog.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update product")
		return
	}

	respondWithData(w, http.StatusOK, updated)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	product, err := h.products.GetProductByID(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve product")
		return
	}
	respondWithData(w, http.StatusOK, product)
}

func (h *HTTPHandler) GetProductByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "productName")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Product name is required")
		return
	}

	product, err := h.products.GetProductByName(r.Context(), name)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve product")
		return
	}
	respondWithData(w, http.StatusOK, product)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	products, totalCount, err := h.products.ListProducts(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve products")
		return
	}
	respondWithData(w, http.StatusOK, paginate(products, params, totalCount))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		respondWithServiceError(w, err, "Failed to delete product")
		return
	}
	respondWithMessage(w, http.StatusOK, "product deleted")
}

// StockUpdateInput is the payload for PATCH /products/{productId}/stock.
// QuantityChange is a signed delta.
type StockUpdateInput struct {
	QuantityChange int32 `json:"quantityChange"`
}

func (h *HTTPHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var input StockUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if input.QuantityChange == 0 {
		respondWithError(w, http.StatusBadRequest, "quantityChange must be non-zero")
		return
	}

	updated, err := h.products.UpdateStock(r.Context(), productID, input.QuantityChange)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update stock")
		return
	}
	respondWithData(w, http.StatusOK, updated)
}

// --- Product tag associations ---

func (h *HTTPHandler) ListProductTags(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	tags, err := h.tags.ListTagsByProduct(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve product tags")
		return
	}
	respondWithData(w, http.StatusOK, tags)
}

func (h *HTTPHandler) ListProductTagOptions(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	tagID, ok := pathID(r, "tagId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid tag ID format")
		return
	}
	options, err := h.tags.ListProductTagOptions(r.Context(), productID, tagID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve product tag options")
		return
	}
	respondWithData(w, http.StatusOK, options)
}

// ProductTagsInput is the payload for POST /products/{productId}/tags.
type ProductTagsInput struct {
	Tags []tagSelectionInput `json:"tags" validate:"required,min=1,dive"`
}

func (h *HTTPHandler) AddProductTags(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var input ProductTagsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.catalog.AddProductTags(r.Context(), productID, toSelections(input.Tags)); err != nil {
		respondWithServiceError(w, err, "Failed to add product tags")
		return
	}
	respondWithMessage(w, http.StatusCreated, "tags added")
}

// ProductTagRemovalInput is the payload for DELETE /products/{productId}/tags.
type ProductTagRemovalInput struct {
	TagIDs []int64 `json:"tagIds" validate:"required,min=1,dive,gt=0"`
}

func (h *HTTPHandler) RemoveProductTags(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var input ProductTagRemovalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.catalog.RemoveProductTags(r.Context(), productID, input.TagIDs); err != nil {
		respondWithServiceError(w, err, "Failed to remove product tags")
		return
	}
	respondWithMessage(w, http.StatusOK, "tags removed")
}

func (h *HTTPHandler) RemoveProductTagOption(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	tagID, ok := pathID(r, "tagId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid tag ID format")
		return
	}
	optionID, ok := pathID(r, "optionId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid option ID format")
		return
	}

	if err := h.catalog.RemoveProductTagOption(r.Context(), productID, tagID, optionID); err != nil {
		respondWithServiceError(w, err, "Failed to remove product tag option")
		return
	}
	respondWithMessage(w, http.StatusOK, "option removed")
}
