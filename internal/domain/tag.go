package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductTag is a named attribute group a product can expose to customers
// (e.g. "sweetness"). Required controls whether a selection is mandatory when
// the tag is attached to a product; MultiSelect controls whether more than
// one option may be picked.
type ProductTag struct {
	TagID       int64     `json:"tagId"`
	Name        string    `json:"name"`
	Required    bool      `json:"required"`
	MultiSelect bool      `json:"multiSelect"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Options is populated when the tag is loaded with its option set.
	Options []ProductTagOption `json:"options,omitempty"`
}

// ProductTagOption is one selectable value under a tag.
// RecommendationLevel ranges -2..2 (strongly discouraged .. strongly
// recommended).
type ProductTagOption struct {
	OptionID            int64           `json:"optionId"`
	TagID               int64           `json:"tagId"`
	Value               string          `json:"value"`
	IsDefault           bool            `json:"isDefault"`
	AdditionalPrice     decimal.Decimal `json:"additionalPrice"`
	RecommendationLevel int32           `json:"recommendationLevel"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// TagSelection is the validated shape of a product's tag payload entry:
// one tag plus the option ids selected for it.
type TagSelection struct {
	TagID     int64   `json:"tagId"`
	OptionIDs []int64 `json:"optionIds"`
}
