package catalog

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bakery-admin-service/internal/config"
	"bakery-admin-service/internal/domain"
	"bakery-admin-service/internal/imaging"
	"bakery-admin-service/internal/store"
)

// --- Mocks ---

type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) CreateProductWithTags(ctx context.Context, product *domain.Product, selections []domain.TagSelection) (*domain.Product, error) {
	args := m.Called(ctx, product, selections)
	if p, ok := args.Get(0).(*domain.Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductStore) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	args := m.Called(ctx, name)
	if p, ok := args.Get(0).(*domain.Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductStore) ListProducts(ctx context.Context, params store.ListParams) ([]domain.Product, int, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if p, ok := args.Get(0).([]domain.Product); ok {
		products = p
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if p, ok := args.Get(0).(*domain.Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductStore) DeleteProduct(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductStore) UpdateStock(ctx context.Context, productID string, quantityChange int32) (*domain.Product, error) {
	args := m.Called(ctx, productID, quantityChange)
	if p, ok := args.Get(0).(*domain.Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTagStore struct {
	mock.Mock
}

func (m *MockTagStore) CreateTag(ctx context.Context, tag *domain.ProductTag) (*domain.ProductTag, error) {
	args := m.Called(ctx, tag)
	if t, ok := args.Get(0).(*domain.ProductTag); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTagStore) GetTagByID(ctx context.Context, id int64) (*domain.ProductTag, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*domain.ProductTag); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTagStore) ListTags(ctx context.Context) ([]domain.ProductTag, error) {
	args := m.Called(ctx)
	var tags []domain.ProductTag
	if t, ok := args.Get(0).([]domain.ProductTag); ok {
		tags = t
	}
	return tags, args.Error(1)
}

func (m *MockTagStore) UpdateTag(ctx context.Context, tag *domain.ProductTag) (*domain.ProductTag, error) {
	args := m.Called(ctx, tag)
	if t, ok := args.Get(0).(*domain.ProductTag); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTagStore) DeleteTag(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTagStore) CreateOption(ctx context.Context, option *domain.ProductTagOption) (*domain.ProductTagOption, error) {
	args := m.Called(ctx, option)
	if o, ok := args.Get(0).(*domain.ProductTagOption); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTagStore) GetOptionByID(ctx context.Context, id int64) (*domain.ProductTagOption, error) {
	args := m.Called(ctx, id)
	if o, ok := args.Get(0).(*domain.ProductTagOption); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTagStore) ListOptionsByTag(ctx context.Context, tagID int64) ([]domain.ProductTagOption, error) {
	args := m.Called(ctx, tagID)
	var options []domain.ProductTagOption
	if o, ok := args.Get(0).([]domain.ProductTagOption); ok {
		options = o
	}
	return options, args.Error(1)
}

func (m *MockTagStore) DeleteOption(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTagStore) ListTagsByProduct(ctx context.Context, productID string) ([]domain.ProductTag, error) {
	args := m.Called(ctx, productID)
	var tags []domain.ProductTag
	if t, ok := args.Get(0).([]domain.ProductTag); ok {
		tags = t
	}
	return tags, args.Error(1)
}

func (m *MockTagStore) ListProductTagOptions(ctx context.Context, productID string, tagID int64) ([]domain.ProductTagOption, error) {
	args := m.Called(ctx, productID, tagID)
	var options []domain.ProductTagOption
	if o, ok := args.Get(0).([]domain.ProductTagOption); ok {
		options = o
	}
	return options, args.Error(1)
}

func (m *MockTagStore) AddProductTags(ctx context.Context, productID string, selections []domain.TagSelection) error {
	args := m.Called(ctx, productID, selections)
	return args.Error(0)
}

func (m *MockTagStore) RemoveProductTags(ctx context.Context, productID string, tagIDs []int64) error {
	args := m.Called(ctx, productID, tagIDs)
	return args.Error(0)
}

func (m *MockTagStore) RemoveProductTagOption(ctx context.Context, productID string, tagID, optionID int64) error {
	args := m.Called(ctx, productID, tagID, optionID)
	return args.Error(0)
}

// --- Helpers ---

func newTestService(t *testing.T) (*Service, *MockProductStore, *MockTagStore, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.UploadConfig{
		RootDir:      root,
		PublicBase:   "http://localhost:8080/uploads/products",
		MaxBytes:     5 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxWidth:     800,
		JPEGQuality:  80,
	}
	products := new(MockProductStore)
	tags := new(MockTagStore)
	svc := NewService(products, tags, imaging.NewTransformer(cfg))
	return svc, products, tags, root
}

func writeTempJPEG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	f, err := os.CreateTemp(t.TempDir(), "upload-*.jpg")
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())
	return f.Name()
}

// countStoredFiles counts regular files under the image root.
func countStoredFiles(t *testing.T, root string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func validCreateInput() CreateProductInput {
	return CreateProductInput{
		Name:       "Chocolate Croissant",
		Price:      decimal.NewFromFloat(12.50),
		Stock:      30,
		CategoryID: 2,
		Status:     domain.StatusActive,
	}
}

// --- CreateProduct ---

func TestCreateProduct_WithoutImage(t *testing.T) {
	svc, products, _, root := newTestService(t)

	products.On("CreateProductWithTags", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*domain.Product)
			assert.Regexp(t, regexp.MustCompile(`^P\d{12}$`), p.ProductID)
			assert.Equal(t, "Chocolate Croissant", p.Name)
			assert.Nil(t, p.ImageURL)
		}).
		Return(&domain.Product{ProductID: "P202608123456", Name: "Chocolate Croissant"}, nil)

	created, err := svc.CreateProduct(context.Background(), validCreateInput())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 0, countStoredFiles(t, root), "no image part means no stored files")
	products.AssertExpectations(t)
}

func TestCreateProduct_WithImage(t *testing.T) {
	svc, products, _, root := newTestService(t)

	in := validCreateInput()
	in.Image = &Upload{
		TempPath:     writeTempJPEG(t, 1200, 900),
		OriginalName: "croissant.jpg",
		ContentType:  "image/jpeg",
	}

	products.On("CreateProductWithTags", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*domain.Product)
			require.NotNil(t, p.ImageURL)
			assert.Contains(t, *p.ImageURL, "/uploads/products/2/")
		}).
		Return(&domain.Product{ProductID: "P202608123456"}, nil)

	created, err := svc.CreateProduct(context.Background(), in)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 1, countStoredFiles(t, root), "exactly one stored image")
	products.AssertExpectations(t)
}

func TestCreateProduct_UnsupportedMIME(t *testing.T) {
	svc, products, _, root := newTestService(t)

	temp := writeTempJPEG(t, 100, 100)
	in := validCreateInput()
	in.Image = &Upload{TempPath: temp, OriginalName: "notes.pdf", ContentType: "application/pdf"}

	created, err := svc.CreateProduct(context.Background(), in)

	require.Error(t, err)
	assert.True(t, errors.Is(err, imaging.ErrUnsupportedType))
	assert.Nil(t, created)
	assert.Equal(t, 0, countStoredFiles(t, root))
	// Rejected before any side effect: the spooled upload is untouched.
	_, statErr := os.Stat(temp)
	assert.NoError(t, statErr)
	products.AssertNotCalled(t, "CreateProductWithTags", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProduct_InvalidPrice(t *testing.T) {
	svc, products, _, _ := newTestService(t)

	in := validCreateInput()
	in.Price = decimal.Zero

	created, err := svc.CreateProduct(context.Background(), in)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPrice))
	assert.Nil(t, created)
	products.AssertNotCalled(t, "CreateProductWithTags", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProduct_RequiredTagMissingSelection(t *testing.T) {
	svc, products, tags, root := newTestService(t)

	in := validCreateInput()
	in.Tags = []domain.TagSelection{{TagID: 1, OptionIDs: nil}}
	in.Image = &Upload{
		TempPath:     writeTempJPEG(t, 100, 100),
		OriginalName: "croissant.jpg",
		ContentType:  "image/jpeg",
	}

	tags.On("GetTagByID", mock.Anything, int64(1)).
		Return(sizeTag(true, false), nil)

	created, err := svc.CreateProduct(context.Background(), in)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTagRequired))
	assert.Nil(t, created)
	// Tag validation precedes the image transform, so nothing was stored.
	assert.Equal(t, 0, countStoredFiles(t, root))
	products.AssertNotCalled(t, "CreateProductWithTags", mock.Anything, mock.Anything, mock.Anything)
	tags.AssertExpectations(t)
}

func TestCreateProduct_StoreFailureDeletesImage(t *testing.T) {
	svc, products, _, root := newTestService(t)

	in := validCreateInput()
	in.Image = &Upload{
		TempPath:     writeTempJPEG(t, 1200, 900),
		OriginalName: "croissant.jpg",
		ContentType:  "image/jpeg",
	}

	products.On("CreateProductWithTags", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, store.ErrProductIDExists)

	created, err := svc.CreateProduct(context.Background(), in)

	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrProductIDExists))
	assert.Nil(t, created)
	// The compensating delete must leave no orphan file behind.
	assert.Equal(t, 0, countStoredFiles(t, root))
	products.AssertExpectations(t)
}

// --- UpdateProduct ---

func TestUpdateProduct_ReplacesImage(t *testing.T) {
	svc, products, _, root := newTestService(t)

	// Seed an existing stored image by running a transform directly.
	tr := imaging.NewTransformer(config.UploadConfig{
		RootDir:     root,
		PublicBase:  "http://localhost:8080/uploads/products",
		MaxWidth:    800,
		JPEGQuality: 80,
	})
	oldResult, err := tr.Transform(writeTempJPEG(t, 500, 500), "old.jpg", 2)
	require.NoError(t, err)

	existing := &domain.Product{
		ProductID:  "P202608123456",
		Name:       "Chocolate Croissant",
		Price:      decimal.NewFromFloat(12.50),
		Stock:      30,
		CategoryID: PtrTo(int64(2)),
		Status:     domain.StatusActive,
		ImageURL:   &oldResult.URL,
	}

	products.On("GetProductByID", mock.Anything, "P202608123456").Return(existing, nil)
	products.On("UpdateProduct", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*domain.Product)
			require.NotNil(t, p.ImageURL)
			assert.NotEqual(t, oldResult.URL, *p.ImageURL)
		}).
		Return(existing, nil)

	in := UpdateProductInput{
		Image: &Upload{
			TempPath:     writeTempJPEG(t, 1000, 800),
			OriginalName: "new.jpg",
			ContentType:  "image/jpeg",
		},
	}

	updated, err := svc.UpdateProduct(context.Background(), "P202608123456", in)

	require.NoError(t, err)
	require.NotNil(t, updated)
	// The replaced file is gone, only the new one remains.
	_, statErr := os.Stat(oldResult.Path)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 1, countStoredFiles(t, root))
	products.AssertExpectations(t)
}

func TestUpdateProduct_RowFailureKeepsOldImage(t *testing.T) {
	svc, products, _, root := newTestService(t)

	tr := imaging.NewTransformer(config.UploadConfig{
		RootDir:     root,
		PublicBase:  "http://localhost:8080/uploads/products",
		MaxWidth:    800,
		JPEGQuality: 80,
	})
	oldResult, err := tr.Transform(writeTempJPEG(t, 500, 500), "old.jpg", 2)
	require.NoError(t, err)

	existing := &domain.Product{
		ProductID:  "P202608123456",
		Name:       "Chocolate Croissant",
		Price:      decimal.NewFromFloat(12.50),
		CategoryID: PtrTo(int64(2)),
		Status:     domain.StatusActive,
		ImageURL:   &oldResult.URL,
	}

	products.On("GetProductByID", mock.Anything, "P202608123456").Return(existing, nil)
	products.On("UpdateProduct", mock.Anything, mock.Anything).
		Return(nil, store.ErrProductNotFound)

	in := UpdateProductInput{
		Image: &Upload{
			TempPath:     writeTempJPEG(t, 1000, 800),
			OriginalName: "new.jpg",
			ContentType:  "image/jpeg",
		},
	}

	updated, err := svc.UpdateProduct(context.Background(), "P202608123456", in)

	require.Error(t, err)
	assert.Nil(t, updated)
	// The new image was rolled back; the one the stored row references stays.
	_, statErr := os.Stat(oldResult.Path)
	assert.NoError(t, statErr)
	assert.Equal(t, 1, countStoredFiles(t, root))
	products.AssertExpectations(t)
}

func TestUpdateProduct_InvalidStatus(t *testing.T) {
	svc, products, _, _ := newTestService(t)

	existing := &domain.Product{
		ProductID: "P202608123456",
		Name:      "Chocolate Croissant",
		Price:     decimal.NewFromFloat(12.50),
		Status:    domain.StatusActive,
	}
	products.On("GetProductByID", mock.Anything, "P202608123456").Return(existing, nil)

	in := UpdateProductInput{Status: PtrTo("archived")}

	updated, err := svc.UpdateProduct(context.Background(), "P202608123456", in)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	assert.Nil(t, updated)
	products.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything)
}

// --- DeleteProduct ---

func TestDeleteProduct_RemovesImage(t *testing.T) {
	svc, products, _, root := newTestService(t)

	tr := imaging.NewTransformer(config.UploadConfig{
		RootDir:     root,
		PublicBase:  "http://localhost:8080/uploads/products",
		MaxWidth:    800,
		JPEGQuality: 80,
	})
	result, err := tr.Transform(writeTempJPEG(t, 500, 500), "gone.jpg", 2)
	require.NoError(t, err)

	existing := &domain.Product{
		ProductID: "P202608123456",
		Name:      "Chocolate Croissant",
		ImageURL:  &result.URL,
	}

	products.On("GetProductByID", mock.Anything, "P202608123456").Return(existing, nil)
	products.On("DeleteProduct", mock.Anything, "P202608123456").Return(nil)

	err = svc.DeleteProduct(context.Background(), "P202608123456")

	require.NoError(t, err)
	assert.Equal(t, 0, countStoredFiles(t, root))
	products.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	svc, products, _, _ := newTestService(t)

	products.On("GetProductByID", mock.Anything, "P202608999999").
		Return(nil, store.ErrProductNotFound)

	err := svc.DeleteProduct(context.Background(), "P202608999999")

	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrProductNotFound))
	products.AssertNotCalled(t, "DeleteProduct", mock.Anything, mock.Anything)
}

// --- Tag association maintenance ---

func TestAddProductTags_ValidatesBeforeWrite(t *testing.T) {
	svc, products, tags, _ := newTestService(t)

	products.On("GetProductByID", mock.Anything, "P202608123456").
		Return(&domain.Product{ProductID: "P202608123456"}, nil)
	tags.On("GetTagByID", mock.Anything, int64(1)).Return(sizeTag(false, false), nil)

	selections := []domain.TagSelection{{TagID: 1, OptionIDs: []int64{11, 12}}}

	err := svc.AddProductTags(context.Background(), "P202608123456", selections)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTagSingleSelect))
	tags.AssertNotCalled(t, "AddProductTags", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveProductTags_EmptyPayload(t *testing.T) {
	svc, _, tags, _ := newTestService(t)

	err := svc.RemoveProductTags(context.Background(), "P202608123456", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTagPayload))
	tags.AssertNotCalled(t, "RemoveProductTags", mock.Anything, mock.Anything, mock.Anything)
}

func PtrTo[T any](v T) *T {
	return &v
}
