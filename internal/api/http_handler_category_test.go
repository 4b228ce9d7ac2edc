package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bakery-admin-service/internal/config"
	"bakery-admin-service/internal/domain"
	"bakery-admin-service/internal/store"
)

// MockCategoryStorer is a mock implementation of store.CategoryStorer
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockCategoryStorer) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) DeleteCategory(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryStorer) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	args := m.Called(ctx, categoryID)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, s Stores) *httptest.Server {
	t.Helper()
	handler := NewHTTPHandler(s, nil, nil,
		config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		config.UploadConfig{MaxBytes: 5 * 1024 * 1024},
	)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}

// decodeEnvelope unmarshals the response envelope, returning the raw data
// payload for further decoding.
func decodeEnvelope(t *testing.T, res *http.Response) (apiResponse, json.RawMessage) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&envelope))
	return apiResponse{
		Success: envelope.Success,
		Message: envelope.Message,
		Error:   envelope.Error,
	}, envelope.Data
}

func TestHTTPHandler_CreateCategory_Success(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	mockAdminStore := authorizedAdminStore()
	server := setupTestChiServer(t, Stores{Categories: mockCatStore, Admins: mockAdminStore})

	now := time.Now().Truncate(time.Millisecond)
	inputPayload := CategoryInput{CategoryName: "Seasonal Specials"}
	expectedCreatedCategory := &domain.Category{
		CategoryID:   1,
		CategoryName: inputPayload.CategoryName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mockCatStore.On("CreateCategory", mock.Anything, mock.MatchedBy(func(cat *domain.Category) bool {
		return cat.CategoryName == inputPayload.CategoryName
	})).Return(expectedCreatedCategory, nil).Once()

	reqBody, _ := json.Marshal(inputPayload)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/categories", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken(t))

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)

	envelope, data := decodeEnvelope(t, res)
	assert.True(t, envelope.Success)
	assert.Empty(t, envelope.Error)

	var responseCategory domain.Category
	require.NoError(t, json.Unmarshal(data, &responseCategory))
	assert.Equal(t, expectedCreatedCategory.CategoryID, responseCategory.CategoryID)
	assert.Equal(t, expectedCreatedCategory.CategoryName, responseCategory.CategoryName)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_CreateCategory_NameExists(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	mockAdminStore := authorizedAdminStore()
	server := setupTestChiServer(t, Stores{Categories: mockCatStore, Admins: mockAdminStore})

	mockCatStore.On("CreateCategory", mock.Anything, mock.Anything).
		Return(nil, store.ErrCategoryNameExists).Once()

	reqBody, _ := json.Marshal(CategoryInput{CategoryName: "Breads"})
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/categories", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken(t))

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusConflict, res.StatusCode)

	envelope, _ := decodeEnvelope(t, res)
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Error)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_GetCategoryByID_NotFound(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, Stores{Categories: mockCatStore})

	mockCatStore.On("GetCategoryByID", mock.Anything, int64(99)).
		Return(nil, store.ErrCategoryNotFound).Once()

	res, err := http.Get(server.URL + "/api/v1/categories/99")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusNotFound, res.StatusCode)

	envelope, _ := decodeEnvelope(t, res)
	assert.False(t, envelope.Success)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_GetCategoryByID_BadID(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, Stores{Categories: mockCatStore})

	res, err := http.Get(server.URL + "/api/v1/categories/not-a-number")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	mockCatStore.AssertNotCalled(t, "GetCategoryByID", mock.Anything, mock.Anything)
}

func TestHTTPHandler_ListCategories(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, Stores{Categories: mockCatStore})

	now := time.Now()
	mockCatStore.On("ListCategories", mock.Anything).
		Return([]domain.Category{
			{CategoryID: 1, CategoryName: "Breads", CreatedAt: now, UpdatedAt: now},
			{CategoryID: 2, CategoryName: "Cakes", CreatedAt: now, UpdatedAt: now},
		}, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/categories")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	envelope, data := decodeEnvelope(t, res)
	assert.True(t, envelope.Success)

	var categories []domain.Category
	require.NoError(t, json.Unmarshal(data, &categories))
	require.Len(t, categories, 2)
	assert.Equal(t, "Breads", categories[0].CategoryName)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_DeleteCategory_RequiresAuth(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, Stores{Categories: mockCatStore})

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/categories/1", nil)
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	mockCatStore.AssertNotCalled(t, "DeleteCategory", mock.Anything, mock.Anything)
}
