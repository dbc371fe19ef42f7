package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fidelize/gateway/internal/middleware"
	"github.com/fidelize/gateway/internal/models"
	"github.com/fidelize/gateway/internal/services"
)

type StatementHandler struct {
	statements *services.StatementService
}

func NewStatementHandler(statements *services.StatementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

// GetStatement returns a page of the customer's point ledger
// @Summary Point statement
// @Description Fetch a page of ledger entries, optionally narrowed to redemption debits. The redemptions tab filters the fetched page in place and never triggers a second fetch.
// @Tags statement
// @Produce json
// @Security BearerAuth
// @Param tab query string false "all or redemptions" Enums(all, redemptions)
// @Param limit query int false "Page size"
// @Param order query string false "asc or desc by timestamp" Enums(asc, desc)
// @Success 200 {object} object{entries=[]models.LedgerEntry,tab=string}
// @Failure 401 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /statement [get]
func (h *StatementHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	opts := services.PageOptions{Order: r.URL.Query().Get("order")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			opts.Limit = limit
		}
	}

	entries, err := h.statements.FetchPage(r.Context(), sess, opts)
	if err != nil {
		services.SendErrorResponse(w, "Não foi possível carregar o extrato. Tente novamente.", http.StatusBadGateway, nil)
		return
	}

	tab := r.URL.Query().Get("tab")
	if tab == "redemptions" {
		entries = services.FilterRedemptions(entries)
	} else {
		tab = "all"
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
		"tab":     tab,
	})
}
