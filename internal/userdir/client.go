// Package userdir 透過主站的內部 API 查詢使用者資料與入帳餘額
package userdir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

func (c *Client) DisplayName(ctx context.Context, userID uint64) (string, error) {
	url := fmt.Sprintf("%s/internal/users/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build user request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user directory returned status %d", resp.StatusCode)
	}

	var out struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode user response: %w", err)
	}
	return out.FirstName + " " + out.LastName, nil
}

func (c *Client) CreditBalance(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	body, err := json.Marshal(map[string]string{"amount": amount.StringFixed(2)})
	if err != nil {
		return fmt.Errorf("failed to marshal credit request: %w", err)
	}

	url := fmt.Sprintf("%s/internal/users/%d/balance/credit", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build credit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user directory returned status %d", resp.StatusCode)
	}

	c.logger.Info("Seller balance credited",
		zap.Uint64("user_id", userID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return nil
}
