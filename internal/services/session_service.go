package services

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/fidelize/gateway/internal/cache"
	"github.com/fidelize/gateway/internal/middleware"
	"github.com/fidelize/gateway/internal/models"
	"github.com/fidelize/gateway/internal/session"
)

// SessionService owns the login/logout lifecycle: backend authentication,
// session records, bearer tokens and the per-session redemption cache.
type SessionService struct {
	backend   BackendAPI
	sessions  *session.Store
	caches    *cache.Registry
	validator *validator.Validate
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"maria@example.com"` // Customer email
	Password string `json:"password" validate:"required,min=6" example:"password123"`    // Customer password
}

// LoginResponse represents the authentication response
// @Description Authentication response structure
type LoginResponse struct {
	Token    string          `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // Bearer token
	Customer models.Customer `json:"customer"`                                                // Customer information
}

func NewSessionService(backendAPI BackendAPI, sessions *session.Store, caches *cache.Registry) *SessionService {
	return &SessionService{
		backend:   backendAPI,
		sessions:  sessions,
		caches:    caches,
		validator: validator.New(),
	}
}

// Login authenticates a customer and opens a session
// @Summary Customer login
// @Description Authenticate against the loyalty backend and open a gateway session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (s *SessionService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[Session] Login attempt from IP: %s", r.RemoteAddr)

	schema, ok := middleware.SchemaFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unknown tenant", http.StatusMisdirectedRequest, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[Session] Login failed - invalid request: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[Session] Multiple JSON objects detected")
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[Session] Login validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	customer, err := s.backend.Login(r.Context(), schema, req.Email, req.Password)
	if err != nil {
		log.Printf("[Session] Backend rejected login for %s: %v", req.Email, err)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	sess := &session.Session{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Schema:     schema,
		Name:       customer.Name,
		Email:      customer.Email,
		Balance:    customer.Balance,
	}

	if err := s.sessions.Create(r.Context(), sess); err != nil {
		log.Printf("[Session] Failed to store session: %v", err)
		SendErrorResponse(w, "Failed to open session", http.StatusInternalServerError, nil)
		return
	}

	// Fresh session, fresh cache. Session IDs are never reused, so a new
	// login can never see codes cached under a previous identity.
	s.caches.ForSession(sess.ID)

	token, err := generateToken(sess.ID)
	if err != nil {
		log.Printf("[Session] Token generation failed for customer %d: %v", customer.ID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[Session] Login successful for customer %d (schema %s)", customer.ID, schema)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, Customer: *customer})
}

// Logout closes the session and blacklists the token
// @Summary Customer logout
// @Description Close the session, drop its redemption cache and blacklist the token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *SessionService) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	if token, ok := middleware.TokenFromContext(r.Context()); ok {
		expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
		if err := s.sessions.BlacklistToken(r.Context(), token, expiry); err != nil {
			log.Printf("[Session] Failed to blacklist token: %v", err)
		}
	}

	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		log.Printf("[Session] Failed to delete session %s: %v", sess.ID, err)
	}
	s.caches.Drop(sess.ID)

	log.Printf("[Session] Logout for customer %d", sess.CustomerID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// GetSession returns the current session
// @Summary Current session
// @Description Return the session context for the presented token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} session.Session
// @Failure 401 {object} ErrorResponse
// @Router /auth/session [get]
func (s *SessionService) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

func generateToken(sessionID string) (string, error) {
	expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	if expiry == 0 {
		expiry = 12 * time.Hour
	}

	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(expiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}
