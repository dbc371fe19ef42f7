package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/fidelize/gateway/internal/models"
)

// Client is the typed HTTP client for the authoritative loyalty backend. All
// balances, codes and ledger entries are owned by the backend; this client
// never caches, the caller does.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "loyalty-backend",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("[Backend] circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// Wire shapes as the backend speaks them. Decoded once here; everything past
// this package uses the canonical models.
type codePayload struct {
	CodigoResgate      string `json:"codigo_resgate"`
	ResgateUtilizado   bool   `json:"resgate_utilizado"`
	SaldoAtual         int64  `json:"saldo_atual"`
	SolicitacaoEnviada bool   `json:"solicitacao_enviada"`
	IDItemRecompensa   int    `json:"id_item_recompensa"`
	CriadoEm           string `json:"criado_em,omitempty"`
}

type issueRequest struct {
	IDItemRecompensa int    `json:"id_item_recompensa"`
	Observacao       string `json:"observacao,omitempty"`
}

type rewardPayload struct {
	ID             int    `json:"id"`
	Nome           string `json:"nome"`
	Pontos         int64  `json:"pontos"`
	Foto           string `json:"foto,omitempty"`
	EntregaTerceiro bool  `json:"entrega_terceiro"`
}

type ledgerRow struct {
	ID            int    `json:"id"`
	Tipo          string `json:"tipo"`
	Origem        string `json:"origem"`
	Pontos        int64  `json:"pontos"`
	Saldo         int64  `json:"saldo"`
	Observacao    string `json:"observacao,omitempty"`
	CodigoResgate string `json:"codigo_resgate,omitempty"`
	CriadoEm      string `json:"criado_em"`
}

type customerPayload struct {
	ID          int    `json:"id"`
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	SaldoPontos int64  `json:"saldo_pontos"`
}

type backendError struct {
	Codigo   string `json:"codigo,omitempty"`
	Mensagem string `json:"mensagem"`
}

func (p codePayload) toModel() models.RedemptionCode {
	code := models.RedemptionCode{
		Code:         p.CodigoResgate,
		RewardID:     p.IDItemRecompensa,
		Used:         p.ResgateUtilizado,
		BalanceAfter: p.SaldoAtual,
		RequestSent:  p.SolicitacaoEnviada,
	}
	if p.CriadoEm != "" {
		if ts, err := time.Parse(time.RFC3339, p.CriadoEm); err == nil {
			code.IssuedAt = ts
		}
	}
	return code
}

// LookupCode asks whether an unused redemption code already exists for the
// (customer, reward) pair. A 404, or a code already marked used, surfaces as
// ErrNoCode.
func (c *Client) LookupCode(ctx context.Context, schema string, customerID, rewardID int) (*models.RedemptionCode, error) {
	path := fmt.Sprintf("/clientes/%d/recompensas/%d/codigo", customerID, rewardID)
	var payload codePayload
	if err := c.getJSON(ctx, schema, path, &payload); err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
			return nil, ErrNoCode
		}
		return nil, err
	}
	code := payload.toModel()
	if code.Used {
		return nil, ErrNoCode
	}
	return &code, nil
}

// IssueRedemption debits points and issues a fresh code. The backend performs
// the balance check, the debit, code generation and the ledger write as one
// atomic operation; there is nothing to compensate for on failure.
func (c *Client) IssueRedemption(ctx context.Context, schema string, customerID, rewardID int, note string) (*models.RedemptionCode, error) {
	path := fmt.Sprintf("/clientes/%d/resgates", customerID)
	body := issueRequest{IDItemRecompensa: rewardID, Observacao: note}

	var payload codePayload
	if err := c.postJSON(ctx, schema, path, body, &payload); err != nil {
		return nil, err
	}
	code := payload.toModel()
	code.RewardID = rewardID
	return &code, nil
}

// LedgerPage fetches one page of the customer's statement. order is "asc" or
// "desc" by timestamp; the backend defaults to newest-first.
func (c *Client) LedgerPage(ctx context.Context, schema string, customerID, limit int, order string) ([]models.LedgerEntry, error) {
	path := fmt.Sprintf("/clientes/%d/movimentacoes?limit=%d&order=%s", customerID, limit, order)

	var envelope struct {
		Movimentacoes []ledgerRow `json:"movimentacoes"`
	}
	if err := c.getJSON(ctx, schema, path, &envelope); err != nil {
		return nil, err
	}

	entries := make([]models.LedgerEntry, 0, len(envelope.Movimentacoes))
	for _, row := range envelope.Movimentacoes {
		entry := models.LedgerEntry{
			ID:             row.ID,
			Direction:      models.Direction(row.Tipo),
			Source:         row.Origem,
			Points:         row.Pontos,
			Balance:        row.Saldo,
			Note:           row.Observacao,
			RedemptionCode: row.CodigoResgate,
		}
		if ts, err := time.Parse(time.RFC3339, row.CriadoEm); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Catalog fetches the tenant's reward catalog. The backend has shipped the
// list under several envelopes over time; decodeCatalog recognizes each
// explicitly and treats anything else as a decode error.
func (c *Client) Catalog(ctx context.Context, schema string) ([]models.RewardItem, error) {
	raw, err := c.getRaw(ctx, schema, "/recompensas")
	if err != nil {
		return nil, err
	}
	return decodeCatalog(raw)
}

func decodeCatalog(raw []byte) ([]models.RewardItem, error) {
	var payloads []rewardPayload

	// Bare array first, then the known wrapper keys in the order the
	// backend introduced them.
	if err := json.Unmarshal(raw, &payloads); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, ErrUnknownEnvelope
		}
		var inner json.RawMessage
		for _, key := range []string{"recompensas", "items", "data"} {
			if v, ok := wrapper[key]; ok {
				inner = v
				break
			}
		}
		if inner == nil {
			return nil, ErrUnknownEnvelope
		}
		if err := json.Unmarshal(inner, &payloads); err != nil {
			return nil, ErrUnknownEnvelope
		}
	}

	items := make([]models.RewardItem, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, models.RewardItem{
			ID:                 p.ID,
			Name:               p.Nome,
			PointCost:          p.Pontos,
			PhotoURL:           p.Foto,
			OffsiteFulfillment: p.EntregaTerceiro,
		})
	}
	return items, nil
}

// Customer fetches the customer's profile and authoritative balance.
func (c *Client) Customer(ctx context.Context, schema string, customerID int) (*models.Customer, error) {
	var payload customerPayload
	if err := c.getJSON(ctx, schema, fmt.Sprintf("/clientes/%d", customerID), &payload); err != nil {
		return nil, err
	}
	return &models.Customer{
		ID:      payload.ID,
		Name:    payload.Nome,
		Email:   payload.Email,
		Balance: payload.SaldoPontos,
	}, nil
}

// Login authenticates a customer against the backend. The gateway never sees
// how credentials are verified; it only learns the resulting identity.
func (c *Client) Login(ctx context.Context, schema, email, password string) (*models.Customer, error) {
	body := map[string]string{"email": email, "senha": password}
	var payload customerPayload
	if err := c.postJSON(ctx, schema, "/clientes/login", body, &payload); err != nil {
		return nil, err
	}
	return &models.Customer{
		ID:      payload.ID,
		Name:    payload.Nome,
		Email:   payload.Email,
		Balance: payload.SaldoPontos,
	}, nil
}

// RequestDeletion files an account-deletion request for the customer.
func (c *Client) RequestDeletion(ctx context.Context, schema string, customerID int, reason string) error {
	body := map[string]string{"motivo": reason}
	return c.postJSON(ctx, schema, fmt.Sprintf("/clientes/%d/exclusao", customerID), body, nil)
}

func (c *Client) getJSON(ctx context.Context, schema, path string, out any) error {
	raw, err := c.getRaw(ctx, schema, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) getRaw(ctx context.Context, schema, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, schema)
}

func (c *Client) postJSON(ctx context.Context, schema, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req, schema)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

type wireResult struct {
	raw    []byte
	apiErr *APIError
}

func (c *Client) do(req *http.Request, schema string) ([]byte, error) {
	req.Header.Set("X-Schema", schema)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	// Transport failures and 5xx feed the breaker. A 4xx is the backend
	// doing its job, not the backend being down.
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1_048_576))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			var body backendError
			if err := json.Unmarshal(raw, &body); err == nil && body.Mensagem != "" {
				apiErr.Code = body.Codigo
				apiErr.Message = body.Mensagem
			}
			if resp.StatusCode >= 500 {
				return nil, apiErr
			}
			return wireResult{apiErr: apiErr}, nil
		}
		return wireResult{raw: raw}, nil
	})
	if err != nil {
		return nil, err
	}

	wire := result.(wireResult)
	if wire.apiErr != nil {
		return nil, wire.apiErr
	}
	return wire.raw, nil
}
