package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

func TestValidateAddress(t *testing.T) {
	cases := []struct {
		name    string
		address string
		valid   bool
	}{
		{"корректный адрес", "0x1a2B3c4D5e6F7a8B9c0D1e2F3a4B5c6D7e8F9a0B", true},
		{"верхний регистр", "0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD", true},
		{"без префикса", "1a2B3c4D5e6F7a8B9c0D1e2F3a4B5c6D7e8F9a0B", false},
		{"короткий", "0x1a2B3c", false},
		{"длинный", "0x1a2B3c4D5e6F7a8B9c0D1e2F3a4B5c6D7e8F9a0B00", false},
		{"не hex", "0xzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", false},
		{"пустой", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAddress(tc.address)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
			}
		})
	}
}

func TestWalletClient_Transfer_Success(t *testing.T) {
	const address = "0x1a2B3c4D5e6F7a8B9c0D1e2F3a4B5c6D7e8F9a0B"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transfers", r.URL.Path)

		var req transferRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, address, req.ToAddress)
		assert.Equal(t, int64(92000), req.AmountCents)
		assert.Equal(t, int64(42), req.ChainRef)

		json.NewEncoder(w).Encode(transferResponse{TxRef: "tx-abc"})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, 5*time.Second)
	txRef, err := client.Transfer(context.Background(), address, 92000, 42)
	assert.NoError(t, err)
	assert.Equal(t, "tx-abc", txRef)
}

func TestWalletClient_Transfer_BadAddress(t *testing.T) {
	client := NewWalletClient("http://127.0.0.1:1", time.Second)

	// Валидация срабатывает до сетевого вызова.
	_, err := client.Transfer(context.Background(), "не-адрес", 100, 1)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestWalletClient_Transfer_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(transferResponse{Error: "недостаточно средств на эскроу"})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, 5*time.Second)
	_, err := client.Transfer(context.Background(), "0x1a2B3c4D5e6F7a8B9c0D1e2F3a4B5c6D7e8F9a0B", 100, 1)
	assert.Error(t, err)
	assert.True(t, apperror.IsSettlement(err))
	assert.Contains(t, err.Error(), "недостаточно средств")
}

func TestWalletClient_Transfer_Unreachable(t *testing.T) {
	client := NewWalletClient("http://127.0.0.1:1", time.Second)

	_, err := client.Transfer(context.Background(), "0x1a2B3c4D5e6F7a8B9c0D1e2F3a4B5c6D7e8F9a0B", 100, 1)
	assert.Error(t, err)
	assert.True(t, apperror.IsSettlement(err))
}

func TestWalletClient_Refund_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)

		var req refundRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(42), req.ChainRef)
		assert.Equal(t, int64(40000), req.AmountCents)

		json.NewEncoder(w).Encode(transferResponse{TxRef: "tx-refund"})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, 5*time.Second)
	txRef, err := client.Refund(context.Background(), 42, 40000)
	assert.NoError(t, err)
	assert.Equal(t, "tx-refund", txRef)
}

func TestWalletClient_Refund_EmptyTxRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transferResponse{})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, 5*time.Second)
	_, err := client.Refund(context.Background(), 1, 100)
	assert.Error(t, err)
	assert.True(t, apperror.IsSettlement(err))
}
