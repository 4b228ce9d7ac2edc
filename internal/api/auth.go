package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bakery-admin-service/internal/domain"
	"bakery-admin-service/internal/store"
)

type contextKey string

// adminContextKey carries the authenticated *domain.Admin through the
// request context.
const adminContextKey contextKey = "admin"

// adminClaims is the JWT payload for admin sessions.
type adminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AdminFromContext returns the authenticated admin, if any.
func AdminFromContext(ctx context.Context) (*domain.Admin, bool) {
	admin, ok := ctx.Value(adminContextKey).(*domain.Admin)
	return admin, ok
}

func (h *HTTPHandler) issueToken(admin *domain.Admin) (string, error) {
	now := time.Now()
	claims := adminClaims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.AdminID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.authCfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.authCfg.JWTSecret))
}

// AuthMiddleware validates the Bearer token, loads the admin it names and
// stores it on the request context. Any failure is a uniform 401.
func (h *HTTPHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respondWithError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		var claims adminClaims
		token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.authCfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		adminID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || adminID <= 0 {
			respondWithError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		admin, err := h.admins.GetAdminByID(r.Context(), adminID)
		if err != nil {
			// A deleted admin's token must stop working immediately.
			respondWithError(w, http.StatusUnauthorized, "unknown admin account")
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// --- Login ---

// LoginInput is the credential payload for POST /admins/login.
type LoginInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResult carries the issued token and the account it belongs to.
type LoginResult struct {
	Token string        `json:"token"`
	Admin *domain.Admin `json:"admin"`
}

// Login verifies the credentials and issues a signed token. Unknown username
// and wrong password produce the same response so the endpoint never reveals
// which part failed.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	admin, err := h.admins.GetAdminByUsername(r.Context(), input.Username)
	if err != nil {
		if errors.Is(err, store.ErrAdminNotFound) {
			respondWithError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		log.Printf("ERROR: Login admin lookup failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)); err != nil {
		respondWithError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := h.issueToken(admin)
	if err != nil {
		log.Printf("ERROR: Login token signing failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	respondWithData(w, http.StatusOK, LoginResult{Token: token, Admin: admin})
}

// --- Admin CRUD ---

// AdminCreateInput defines the expected input for creating an admin account.
type AdminCreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (h *HTTPHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var input AdminCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: CreateAdmin password hashing failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create admin")
		return
	}

	admin := &domain.Admin{
		Username:     input.Username,
		PasswordHash: string(hash),
	}
	created, err := h.admins.CreateAdmin(r.Context(), admin)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create admin")
		return
	}

	respondWithData(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.ListAdmins(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve admins")
		return
	}
	respondWithData(w, http.StatusOK, admins)
}

func (h *HTTPHandler) GetAdminByID(w http.ResponseWriter, r *http.Request) {
	adminID, ok := pathID(r, "adminId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid admin ID format")
		return
	}
	admin, err := h.admins.GetAdminByID(r.Context(), adminID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve admin")
		return
	}
	respondWithData(w, http.StatusOK, admin)
}

// AdminUpdateInput defines the expected input for updating an admin account.
// A nil password leaves the stored hash untouched.
type AdminUpdateInput struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password *string `json:"password" validate:"omitempty,min=8,max=128"`
}

func (h *HTTPHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, ok := pathID(r, "adminId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid admin ID format")
		return
	}

	var input AdminUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	existing, err := h.admins.GetAdminByID(r.Context(), adminID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve admin")
		return
	}

	existing.Username = input.Username
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: UpdateAdmin password hashing failed: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to update admin")
			return
		}
		existing.PasswordHash = string(hash)
	}

	updated, err := h.admins.UpdateAdmin(r.Context(), existing)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update admin")
		return
	}
	respondWithData(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, ok := pathID(r, "adminId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid admin ID format")
		return
	}
	if err := h.admins.DeleteAdmin(r.Context(), adminID); err != nil {
		respondWithServiceError(w, err, "Failed to delete admin")
		return
	}
	respondWithMessage(w, http.StatusOK, "admin deleted")
}
