// Package catalog implements the product write workflows: create with image
// transform and transactional tag association, partial update with image
// replacement, delete with image cleanup, and tag association maintenance.
package catalog

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"bakery-admin-service/internal/domain"
	"bakery-admin-service/internal/ident"
	"bakery-admin-service/internal/imaging"
	"bakery-admin-service/internal/store"
)

// ImageStore is the slice of the imaging transformer the service needs.
// *imaging.Transformer satisfies it.
type ImageStore interface {
	AllowedType(mimeType string) bool
	Transform(tempPath, originalName string, categoryID int64) (*imaging.Result, error)
	Delete(storedPath string) error
	DeleteByURL(imageURL string) error
}

// Service orchestrates product writes across the image store and the
// database. It holds no mutable state and is safe for concurrent use.
type Service struct {
	products store.ProductStorer
	tags     store.TagStorer
	images   ImageStore
}

// NewService creates a Service with its collaborators.
func NewService(ps store.ProductStorer, ts store.TagStorer, images ImageStore) *Service {
	return &Service{
		products: ps,
		tags:     ts,
		images:   images,
	}
}

// AllowedImageType reports whether the MIME type passes the upload
// allow-list. The HTTP layer checks this before spooling the upload so a
// rejected type never touches disk.
func (s *Service) AllowedImageType(mimeType string) bool {
	return s.images.AllowedType(mimeType)
}

// Upload describes an already-spooled upload: the temp file written by the
// HTTP layer plus the client-declared name and MIME type.
type Upload struct {
	TempPath     string
	OriginalName string
	ContentType  string
}

// CreateProductInput carries the validated-shape fields for product creation.
// Tags is nil when no tag payload was supplied; Image is nil when no image
// part was uploaded.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int32
	CategoryID  int64
	Status      string
	Tags        []domain.TagSelection
	Image       *Upload
}

// CreateProduct runs the product write transaction:
//
//  1. validate fields (cheap checks before side-effecting steps)
//  2. validate each tag selection against its persisted tag
//  3. transform the image, if any — from here on a durable file exists
//  4. generate the product id
//  5. insert product + association rows in one database transaction
//
// On any failure after step 3 the written image file is deleted before the
// original error is returned. Terminal states: committed (rows + image
// durable) or aborted (no rows, no orphan file).
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if in.Price.Cmp(decimal.Zero) <= 0 {
		return nil, ErrInvalidPrice
	}
	if in.CategoryID <= 0 {
		return nil, ErrInvalidCategory
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}
	status := in.Status
	if status == "" {
		status = domain.StatusActive
	}
	if status != domain.StatusActive && status != domain.StatusInactive {
		return nil, ErrInvalidStatus
	}
	if in.Image != nil && !s.images.AllowedType(in.Image.ContentType) {
		return nil, imaging.ErrUnsupportedType
	}

	for _, sel := range in.Tags {
		tag, err := s.tags.GetTagByID(ctx, sel.TagID)
		if err != nil {
			return nil, err
		}
		if err := ValidateTagSelection(tag, sel.OptionIDs); err != nil {
			return nil, err
		}
	}

	var img *imaging.Result
	if in.Image != nil {
		var err error
		img, err = s.images.Transform(in.Image.TempPath, in.Image.OriginalName, in.CategoryID)
		if err != nil {
			return nil, err
		}
	}

	product := &domain.Product{
		ProductID:   ident.NewProductID(),
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  &in.CategoryID,
		Status:      status,
	}
	if img != nil {
		product.ImageURL = &img.URL
	}

	created, err := s.products.CreateProductWithTags(ctx, product, in.Tags)
	if err != nil {
		if img != nil {
			// Compensating delete: the image was written before the database
			// transaction, so a failed commit leaves it orphaned otherwise.
			if delErr := s.images.Delete(img.Path); delErr != nil {
				log.Printf("ERROR: catalog: failed to delete image %s after aborted create: %v", img.Path, delErr)
			}
		}
		return nil, err
	}
	return created, nil
}

// UpdateProductInput carries partial-update fields. Nil fields are left
// untouched on the product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int32
	CategoryID  *int64
	Status      *string
	Image       *Upload
}

// UpdateProduct applies a partial update. A new image is transformed under
// the effective category (new one if provided, else existing); the previous
// image file is deleted best-effort only after the row update succeeded, so
// a failed update never destroys the image the stored row still references.
// A failed update after a successful transform deletes the new file instead.
func (s *Service) UpdateProduct(ctx context.Context, productID string, in UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = in.Description
	}
	if in.Price != nil {
		if in.Price.Cmp(decimal.Zero) <= 0 {
			return nil, ErrInvalidPrice
		}
		product.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrInvalidStock
		}
		product.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		if *in.CategoryID <= 0 {
			return nil, ErrInvalidCategory
		}
		product.CategoryID = in.CategoryID
	}
	if in.Status != nil {
		if *in.Status != domain.StatusActive && *in.Status != domain.StatusInactive {
			return nil, ErrInvalidStatus
		}
		product.Status = *in.Status
	}
	if in.Image != nil && !s.images.AllowedType(in.Image.ContentType) {
		return nil, imaging.ErrUnsupportedType
	}

	var img *imaging.Result
	previousURL := product.ImageURL
	if in.Image != nil {
		categoryID := int64(0)
		if product.CategoryID != nil {
			categoryID = *product.CategoryID
		}
		img, err = s.images.Transform(in.Image.TempPath, in.Image.OriginalName, categoryID)
		if err != nil {
			return nil, err
		}
		product.ImageURL = &img.URL
	}

	updated, err := s.products.UpdateProduct(ctx, product)
	if err != nil {
		if img != nil {
			if delErr := s.images.Delete(img.Path); delErr != nil {
				log.Printf("ERROR: catalog: failed to delete image %s after aborted update: %v", img.Path, delErr)
			}
		}
		return nil, err
	}

	if img != nil && previousURL != nil {
		// Best effort: the new image is already valid and authoritative, so
		// a failure here is logged, never propagated.
		if delErr := s.images.DeleteByURL(*previousURL); delErr != nil {
			log.Printf("WARN: catalog: failed to delete replaced image %s: %v", *previousURL, delErr)
		}
	}
	return updated, nil
}

// DeleteProduct removes the product row (association rows cascade) and its
// image file. The image delete is best-effort; the row delete is the
// operation's success criterion.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	if product.ImageURL != nil {
		if delErr := s.images.DeleteByURL(*product.ImageURL); delErr != nil {
			log.Printf("WARN: catalog: failed to delete image for removed product %s: %v", productID, delErr)
		}
	}
	return nil
}

// AddProductTags validates each selection against its persisted tag, then
// inserts the association rows transactionally.
func (s *Service) AddProductTags(ctx context.Context, productID string, selections []domain.TagSelection) error {
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return err
	}
	for _, sel := range selections {
		tag, err := s.tags.GetTagByID(ctx, sel.TagID)
		if err != nil {
			return err
		}
		if err := ValidateTagSelection(tag, sel.OptionIDs); err != nil {
			return err
		}
	}
	return s.tags.AddProductTags(ctx, productID, selections)
}

// RemoveProductTags deletes all option associations and the tag associations
// for the given tags on a product.
func (s *Service) RemoveProductTags(ctx context.Context, productID string, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return ErrInvalidTagPayload
	}
	return s.tags.RemoveProductTags(ctx, productID, tagIDs)
}

// RemoveProductTagOption deletes one option association; when it was the last
// one for the (product, tag) pair the tag association goes too, so no tag
// link without selected options is left behind.
func (s *Service) RemoveProductTagOption(ctx context.Context, productID string, tagID, optionID int64) error {
	return s.tags.RemoveProductTagOption(ctx, productID, tagID, optionID)
}
