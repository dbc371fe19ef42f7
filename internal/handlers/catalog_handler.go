package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/fidelize/gateway/internal/middleware"
	"github.com/fidelize/gateway/internal/services"
)

type CatalogHandler struct {
	catalog   *services.CatalogService
	validator *services.ValidationHelper
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		validator: services.NewValidationHelper(),
	}
}

// ListRewards returns the tenant's reward catalog
// @Summary Reward catalog
// @Description List rewards with canRedeem computed against the session balance
// @Tags rewards
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.RewardView
// @Failure 401 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /rewards [get]
func (h *CatalogHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rewards, err := h.catalog.Rewards(r.Context(), sess)
	if err != nil {
		log.Printf("[Catalog] ListRewards - %v", err)
		services.SendErrorResponse(w, "Não foi possível carregar o catálogo. Tente novamente.", http.StatusBadGateway, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rewards)
}

// GetCustomer returns the customer's profile and balance
// @Summary Customer profile
// @Description Fetch the authoritative profile and balance, refreshing the session snapshot
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Customer
// @Failure 401 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /customer [get]
func (h *CatalogHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	customer, err := h.catalog.Customer(r.Context(), sess)
	if err != nil {
		log.Printf("[Catalog] GetCustomer - %v", err)
		services.SendErrorResponse(w, "Não foi possível carregar o perfil. Tente novamente.", http.StatusBadGateway, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(customer)
}

// RequestDeletion files an account-deletion request
// @Summary Request account deletion
// @Description Forward an account-deletion request to the loyalty backend
// @Tags customer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{reason=string} false "Deletion request"
// @Success 202 {object} map[string]string
// @Failure 401 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /account/deletion-request [post]
func (h *CatalogHandler) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"max=500"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && err != io.EOF {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := h.catalog.RequestDeletion(r.Context(), sess, req.Reason); err != nil {
		log.Printf("[Catalog] RequestDeletion - %v", err)
		services.SendErrorResponse(w, "Não foi possível registrar a solicitação. Tente novamente.", http.StatusBadGateway, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"message": "Solicitação de exclusão registrada"})
}
