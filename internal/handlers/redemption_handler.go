package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fidelize/gateway/internal/backend"
	"github.com/fidelize/gateway/internal/middleware"
	"github.com/fidelize/gateway/internal/services"
)

type RedemptionHandler struct {
	redemptions *services.RedemptionService
	catalog     *services.CatalogService
	validator   *services.ValidationHelper
}

func NewRedemptionHandler(redemptions *services.RedemptionService, catalog *services.CatalogService) *RedemptionHandler {
	return &RedemptionHandler{
		redemptions: redemptions,
		catalog:     catalog,
		validator:   services.NewValidationHelper(),
	}
}

// Redeem drives a redemption attempt for one reward
// @Summary Redeem a reward
// @Description Check for an existing code, ask for confirmation, or issue a new redemption code
// @Tags redemptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rewardID path int true "Reward ID"
// @Param request body object{confirm=bool,observacao=string} true "Redemption request"
// @Success 200 {object} services.RedemptionOutcome
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /rewards/{rewardID}/redeem [post]
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rewardID, err := strconv.Atoi(chi.URLParam(r, "rewardID"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid reward id", http.StatusBadRequest, nil)
		return
	}

	var req struct {
		Confirm    bool   `json:"confirm"`
		Observacao string `json:"observacao" validate:"max=200"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	reward, found, err := h.catalog.FindReward(r.Context(), sess, rewardID)
	if err != nil {
		log.Printf("[Redemption] Redeem - catalog fetch failed: %v", err)
		services.SendErrorResponse(w, "Não foi possível carregar a recompensa. Tente novamente.", http.StatusBadGateway, nil)
		return
	}
	if !found {
		services.SendErrorResponse(w, "Reward not found", http.StatusNotFound, nil)
		return
	}

	outcome, err := h.redemptions.Redeem(r.Context(), sess, *reward, req.Observacao, req.Confirm)
	if err != nil {
		h.sendRedeemError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

// GetCode looks up an existing unused code for a reward
// @Summary Look up existing redemption code
// @Description Return the cached or backend-known unused code for a reward, or the confirmation prompt when none exists
// @Tags redemptions
// @Produce json
// @Security BearerAuth
// @Param rewardID path int true "Reward ID"
// @Success 200 {object} services.RedemptionOutcome
// @Failure 404 {object} services.ErrorResponse
// @Router /rewards/{rewardID}/code [get]
func (h *RedemptionHandler) GetCode(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rewardID, err := strconv.Atoi(chi.URLParam(r, "rewardID"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid reward id", http.StatusBadRequest, nil)
		return
	}

	reward, found, err := h.catalog.FindReward(r.Context(), sess, rewardID)
	if err != nil {
		services.SendErrorResponse(w, "Não foi possível carregar a recompensa. Tente novamente.", http.StatusBadGateway, nil)
		return
	}
	if !found {
		services.SendErrorResponse(w, "Reward not found", http.StatusNotFound, nil)
		return
	}

	outcome := h.redemptions.Check(r.Context(), sess, *reward)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

// sendRedeemError maps orchestrator failures onto the error taxonomy:
// validation rejections pass through verbatim with their code, everything
// else collapses to a generic try-again message. Nothing is retried here.
func (h *RedemptionHandler) sendRedeemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInsufficientBalance):
		services.SendErrorResponseCode(w, "Saldo de pontos insuficiente", backend.CodeInsufficientBalance, http.StatusUnprocessableEntity, nil)
	case errors.Is(err, services.ErrAttemptInFlight):
		services.SendErrorResponse(w, "Um resgate já está em andamento", http.StatusConflict, nil)
	case errors.Is(err, services.ErrRateLimited):
		services.SendErrorResponse(w, "Limite de resgates atingido. Tente mais tarde.", http.StatusTooManyRequests, nil)
	default:
		if apiErr, ok := backend.AsAPIError(err); ok {
			switch apiErr.Code {
			case backend.CodeInsufficientBalance, backend.CodeInvalidPoints:
				services.SendErrorResponseCode(w, apiErr.Message, apiErr.Code, http.StatusUnprocessableEntity, nil)
				return
			}
		}
		log.Printf("[Redemption] issue failed: %v", err)
		services.SendErrorResponse(w, "Não foi possível concluir o resgate. Tente novamente.", http.StatusBadGateway, nil)
	}
}
