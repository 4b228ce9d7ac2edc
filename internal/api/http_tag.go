package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"bakery-admin-service/internal/domain"
)

// TagInput defines the expected input for creating or updating a tag.
type TagInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Required    bool   `json:"required"`
	MultiSelect bool   `json:"multiSelect"`
}

func (h *HTTPHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var input TagInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	created, err := h.tags.CreateTag(r.Context(), &domain.ProductTag{
		Name:        input.Name,
		Required:    input.Required,
		MultiSelect: input.MultiSelect,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create tag")
		return
	}
	respondWithData(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListTags(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve tags")
		return
	}
	respondWithData(w, http.StatusOK, tags)
}

func (h *HTTPHandler) GetTagByID(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(r, "tagId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid tag ID format")
		return
	}

	tag, err := h.tags.GetTagByID(r.Context(), tagID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve tag")
		return
	}
	respondWithData(w, http.StatusOK, tag)
}

func (h *HTTPHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(r, "tagId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid tag ID format")
		return
	}

	var input TagInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	updated, err := h.tags.UpdateTag(r.Context(), &domain.ProductTag{
		TagID:       tagID,
		Name:        input.Name,
		Required:    input.Required,
		MultiSelect: input.MultiSelect,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update tag")
		return
	}
	respondWithData(w, http.StatusOK, updated)
}

// DeleteTag refuses to delete a tag that products still reference (409).
func (h *HTTPHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(r, "tagId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid tag ID format")
		return
	}

	if err := h.tags.DeleteTag(r.Context(), tagID); err != nil {
		respondWithServiceError(w, err, "Failed to delete tag")
		return
	}
	respondWithMessage(w, http.StatusOK, "tag deleted")
}

// --- Options ---

// TagOptionInput defines the expected input for creating a tag option.
type TagOptionInput struct {
	Value               string          `json:"value" validate:"required,max=100"`
	IsDefault           bool            `json:"isDefault"`
	AdditionalPrice     decimal.Decimal `json:"additionalPrice"`
	RecommendationLevel int32           `json:"recommendationLevel" validate:"gte=-2,lte=2"`
}

func (h *HTTPHandler) CreateTagOption(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(r, "tagId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid tag ID format")
		return
	}

	var input TagOptionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if input.AdditionalPrice.IsNegative() {
		respondWithError(w, http.StatusBadRequest, "additionalPrice cannot be negative")
		return
	}

	created, err := h.tags.CreateOption(r.Context(), &domain.ProductTagOption{
		TagID:               tagID,
		Value:               input.Value,
		IsDefault:           input.IsDefault,
		AdditionalPrice:     input.AdditionalPrice,
		RecommendationLevel: input.RecommendationLevel,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create tag option")
		return
	}
	respondWithData(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListTagOptions(w http.ResponseWriter, r *http.Request) {
	tagID, ok := pathID(r, "tagId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid tag ID format")
		return
	}

	if _, err := h.tags.GetTagByID(r.Context(), tagID); err != nil {
		respondWithServiceError(w, err, "Failed to retrieve tag")
		return
	}

	options, err := h.tags.ListOptionsByTag(r.Context(), tagID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve tag options")
		return
	}
	respondWithData(w, http.StatusOK, options)
}

func (h *HTTPHandler) DeleteTagOption(w http.ResponseWriter, r *http.Request) {
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

	option, err := h.tags.GetOptionByID(r.Context(), optionID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve tag option")
		return
	}
	if option.TagID != tagID {
		respondWithError(w, http.StatusNotFound, "Option does not belong to this tag")
		return
	}

	if err := h.tags.DeleteOption(r.Context(), optionID); err != nil {
		respondWithServiceError(w, err, "Failed to delete tag option")
		return
	}
	respondWithMessage(w, http.StatusOK, "option deleted")
}
