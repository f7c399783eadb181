package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/httpclient"
)

// OrderItem is one line of an order submitted to the orders API.
type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderRequest is the payload for the order creation endpoint.
type OrderRequest struct {
	CustomerID  string      `json:"customer_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
}

// OrdersClient submits orders to the orders service, handling login and
// token renewal.
type OrdersClient struct {
	http     *httpclient.Client
	baseURL  string
	username string
	password string
	logger   *slog.Logger

	mu    sync.Mutex
	token string
}

// NewOrdersClient creates an authenticated orders API client.
func NewOrdersClient(baseURL, username, password string, logger *slog.Logger) *OrdersClient {
	return &OrdersClient{
		http:     httpclient.New(httpclient.DefaultConfig()),
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
	}
}

// SubmitOrder posts one order. On an expired or rejected token it logs in
// again and retries once. Other non-201 responses are translated through
// the structured error body the orders API returns.
func (c *OrdersClient) SubmitOrder(ctx context.Context, order OrderRequest) error {
	resp, err := c.postOrder(ctx, order)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		drain(resp)
		c.logger.InfoContext(ctx, "token rejected, logging in again")
		c.invalidateToken()
		resp, err = c.postOrder(ctx, order)
		if err != nil {
			return err
		}
	}
	if resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, "orders service")
	}
	drain(resp)
	return nil
}

func (c *OrdersClient) postOrder(ctx context.Context, order OrderRequest) (*http.Response, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
}

// ensureToken returns the cached token, logging in when none is held.
func (c *OrdersClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	resp, err := c.http.Post(ctx, c.baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if loginResp.Data.Token == "" {
		return "", fmt.Errorf("login response missing token")
	}

	c.token = loginResp.Data.Token
	return c.token, nil
}

func (c *OrdersClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
