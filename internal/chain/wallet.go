package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// addressPattern — строгий формат адреса кошелька: 0x и 40 hex символов.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidateAddress проверяет формат адреса до обращения к кошельку.
func ValidateAddress(address string) error {
	if !addressPattern.MatchString(address) {
		return apperror.New(apperror.ErrCodeValidation, "некорректный адрес кошелька")
	}
	return nil
}

// Transferer описывает внешний примитив перевода средств. Протокол
// доверяет его результату и никогда не повторяет вызов вслепую:
// идемпотентность обеспечивается записью о выплате.
// Refund возвращает часть депонированных средств исходному плательщику,
// которого кошельковый сервис знает по числовой ссылке задания.
type Transferer interface {
	Transfer(ctx context.Context, toAddress string, amountCents int64, chainRef int64) (txRef string, err error)
	Refund(ctx context.Context, chainRef int64, amountCents int64) (txRef string, err error)
}

// WalletClient — HTTP клиент кошелькового сервиса.
type WalletClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewWalletClient(baseURL string, timeout time.Duration) *WalletClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WalletClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transferRequest struct {
	ToAddress   string `json:"to_address"`
	AmountCents int64  `json:"amount_cents"`
	ChainRef    int64  `json:"chain_ref"`
}

type transferResponse struct {
	TxRef string `json:"tx_ref"`
	Error string `json:"error,omitempty"`
}

// Transfer выполняет перевод через кошельковый сервис. Любая ошибка после
// отправки запроса трактуется как сбой с возможным исполнением: вызывающий
// должен повторять release, а не сам перевод.
func (c *WalletClient) Transfer(ctx context.Context, toAddress string, amountCents int64, chainRef int64) (string, error) {
	if err := ValidateAddress(toAddress); err != nil {
		return "", err
	}

	body, err := json.Marshal(transferRequest{
		ToAddress:   toAddress,
		AmountCents: amountCents,
		ChainRef:    chainRef,
	})
	if err != nil {
		return "", fmt.Errorf("wallet: не удалось сериализовать запрос: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("wallet: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeSettlement, "кошельковый сервис недоступен")
	}
	defer resp.Body.Close()

	var out transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeSettlement, "некорректный ответ кошелькового сервиса")
	}

	if resp.StatusCode != http.StatusOK || out.TxRef == "" {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("перевод отклонён, статус %d", resp.StatusCode)
		}
		return "", apperror.New(apperror.ErrCodeSettlement, msg)
	}

	return out.TxRef, nil
}

type refundRequest struct {
	ChainRef    int64 `json:"chain_ref"`
	AmountCents int64 `json:"amount_cents"`
}

// Refund возвращает средства исходному плательщику по ссылке задания.
func (c *WalletClient) Refund(ctx context.Context, chainRef int64, amountCents int64) (string, error) {
	body, err := json.Marshal(refundRequest{ChainRef: chainRef, AmountCents: amountCents})
	if err != nil {
		return "", fmt.Errorf("wallet: не удалось сериализовать запрос: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/refunds", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("wallet: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeSettlement, "кошельковый сервис недоступен")
	}
	defer resp.Body.Close()

	var out transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeSettlement, "некорректный ответ кошелькового сервиса")
	}

	if resp.StatusCode != http.StatusOK || out.TxRef == "" {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("возврат отклонён, статус %d", resp.StatusCode)
		}
		return "", apperror.New(apperror.ErrCodeSettlement, msg)
	}

	return out.TxRef, nil
}
