package catalog

import "errors"

// Predefined validation errors. All of these are detected before any durable
// write happens, so no cleanup is ever needed when they are returned.
var (
	ErrNameRequired      = errors.New("catalog: product name is required")
	ErrInvalidPrice      = errors.New("catalog: price must be greater than zero")
	ErrInvalidCategory   = errors.New("catalog: invalid category id")
	ErrInvalidStock      = errors.New("catalog: stock cannot be negative")
	ErrInvalidStatus     = errors.New("catalog: status must be active or inactive")
	ErrInvalidTagPayload = errors.New("catalog: malformed tag payload")

	// Tag policy violations (subtype of validation).
	ErrTagRequired      = errors.New("catalog: required tag needs at least one selected option")
	ErrTagSingleSelect  = errors.New("catalog: tag does not allow multiple options")
	ErrInvalidTagOption = errors.New("catalog: option does not belong to tag")
)

// IsValidation reports whether err belongs to the catalog validation family,
// tag policy violations included. The HTTP layer maps these to 400.
func IsValidation(err error) bool {
	for _, sentinel := range []error{
		ErrNameRequired, ErrInvalidPrice, ErrInvalidCategory, ErrInvalidStock,
		ErrInvalidStatus, ErrInvalidTagPayload,
		ErrTagRequired, ErrTagSingleSelect, ErrInvalidTagOption,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
