package catalog

import (
	"fmt"

	"bakery-admin-service/internal/domain"
)

// ValidateTagSelection checks a proposed option selection against a tag's
// policy. The tag must be loaded with its option set. Pure function, safe to
// call concurrently.
//
// Checks, in order: every option id must belong to the tag; a required tag
// needs at least one selection; a single-select tag allows at most one.
func ValidateTagSelection(tag *domain.ProductTag, optionIDs []int64) error {
	valid := make(map[int64]struct{}, len(tag.Options))
	for _, opt := range tag.Options {
		valid[opt.OptionID] = struct{}{}
	}
	for _, id := range optionIDs {
		if _, ok := valid[id]; !ok {
			return fmt.Errorf("%w: tagId=%d optionId=%d", ErrInvalidTagOption, tag.TagID, id)
		}
	}
	if tag.Required && len(optionIDs) == 0 {
		return fmt.Errorf("%w: tagId=%d", ErrTagRequired, tag.TagID)
	}
	if !tag.MultiSelect && len(optionIDs) > 1 {
		return fmt.Errorf("%w: tagId=%d selected=%d", ErrTagSingleSelect, tag.TagID, len(optionIDs))
	}
	return nil
}
