package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LookupCode(t *testing.T) {
	t.Run("existing unused code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/clientes/7/recompensas/42/codigo", r.URL.Path)
			assert.Equal(t, "acme", r.Header.Get("X-Schema"))
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			json.NewEncoder(w).Encode(map[string]any{
				"codigo_resgate":    "ABC123",
				"resgate_utilizado": false,
				"saldo_atual":       700,
				"id_item_recompensa": 42,
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")
		code, err := client.LookupCode(context.Background(), "acme", 7, 42)

		require.NoError(t, err)
		assert.Equal(t, "ABC123", code.Code)
		assert.Equal(t, 42, code.RewardID)
		assert.False(t, code.Used)
		assert.Equal(t, int64(700), code.BalanceAfter)
	})

	t.Run("404 means no code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"mensagem":"não encontrado"}`, http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")
		_, err := client.LookupCode(context.Background(), "acme", 7, 42)
		assert.ErrorIs(t, err, ErrNoCode)
	})

	t.Run("already used code means no code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"codigo_resgate":    "OLD111",
				"resgate_utilizado": true,
				"saldo_atual":       700,
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")
		_, err := client.LookupCode(context.Background(), "acme", 7, 42)
		assert.ErrorIs(t, err, ErrNoCode)
	})
}

func TestClient_IssueRedemption(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/clientes/7/resgates", r.URL.Path)

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, float64(42), req["id_item_recompensa"])
			assert.Equal(t, "sem açúcar", req["observacao"])

			json.NewEncoder(w).Encode(map[string]any{
				"codigo_resgate":      "ABC123",
				"resgate_utilizado":   false,
				"saldo_atual":         700,
				"solicitacao_enviada": true,
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")
		code, err := client.IssueRedemption(context.Background(), "acme", 7, 42, "sem açúcar")

		require.NoError(t, err)
		assert.Equal(t, "ABC123", code.Code)
		assert.Equal(t, 42, code.RewardID)
		assert.Equal(t, int64(700), code.BalanceAfter)
		assert.True(t, code.RequestSent)
	})

	t.Run("insufficient balance rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{
				"codigo":   "INSUFFICIENT_BALANCE",
				"mensagem": "Saldo de pontos insuficiente",
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key")
		_, err := client.IssueRedemption(context.Background(), "acme", 7, 42, "")

		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, CodeInsufficientBalance, apiErr.Code)
		assert.Equal(t, "Saldo de pontos insuficiente", apiErr.Message)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	})
}

func TestClient_LedgerPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/clientes/7/movimentacoes", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))

		w.Write([]byte(`{"movimentacoes":[
			{"id":2,"tipo":"DEBIT","origem":"REDEMPTION","pontos":300,"saldo":700,"codigo_resgate":"ABC123","criado_em":"2026-08-30T12:00:00Z"},
			{"id":1,"tipo":"CREDIT","origem":"PURCHASE","pontos":1000,"saldo":1000,"criado_em":"2026-08-01T09:30:00Z"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	entries, err := client.LedgerPage(context.Background(), "acme", 7, 20, "desc")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ABC123", entries[0].RedemptionCode)
	assert.Equal(t, int64(700), entries[0].Balance)
	assert.Equal(t, 2026, entries[0].CreatedAt.Year())
	assert.Equal(t, "CREDIT", string(entries[1].Direction))
}

func TestDecodeCatalog(t *testing.T) {
	item := `{"id":1,"nome":"Caneca","pontos":300,"foto":"caneca.jpg","entrega_terceiro":false}`

	t.Run("recognized envelopes", func(t *testing.T) {
		for name, payload := range map[string]string{
			"bare array":  `[` + item + `]`,
			"recompensas": `{"recompensas":[` + item + `]}`,
			"items":       `{"items":[` + item + `]}`,
			"data":        `{"data":[` + item + `]}`,
		} {
			t.Run(name, func(t *testing.T) {
				items, err := decodeCatalog([]byte(payload))
				require.NoError(t, err)
				require.Len(t, items, 1)
				assert.Equal(t, "Caneca", items[0].Name)
				assert.Equal(t, int64(300), items[0].PointCost)
			})
		}
	})

	t.Run("offsite flag carried through", func(t *testing.T) {
		items, err := decodeCatalog([]byte(`[{"id":9,"nome":"Cesta","pontos":500,"entrega_terceiro":true}]`))
		require.NoError(t, err)
		assert.True(t, items[0].OffsiteFulfillment)
	})

	t.Run("unrecognized envelope is a decode error", func(t *testing.T) {
		for name, payload := range map[string]string{
			"unknown wrapper key": `{"rewards":[` + item + `]}`,
			"scalar":              `42`,
			"wrapper of scalars":  `{"items":"none"}`,
			"not json":            `<html>`,
		} {
			t.Run(name, func(t *testing.T) {
				_, err := decodeCatalog([]byte(payload))
				assert.ErrorIs(t, err, ErrUnknownEnvelope)
			})
		}
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, `{"mensagem":"internal"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	// Five consecutive 5xx responses trip the breaker.
	for i := 0; i < 5; i++ {
		_, err := client.Customer(context.Background(), "acme", 7)
		assert.Error(t, err)
	}
	assert.Equal(t, 5, hits)

	_, err := client.Customer(context.Background(), "acme", 7)
	assert.Error(t, err)
	assert.Equal(t, 5, hits, "open breaker must not reach the backend")
}

func TestClient_Customer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/clientes/7", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "nome": "Maria Souza", "email": "maria@example.com", "saldo_pontos": 1000,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	customer, err := client.Customer(context.Background(), "acme", 7)

	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", customer.Name)
	assert.Equal(t, int64(1000), customer.Balance)
}
