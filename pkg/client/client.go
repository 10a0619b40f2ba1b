// Package client talks to the todo item HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnexpectedErrorMessage is shown to users for every failure that is not a
// validation error reported by the API.
const UnexpectedErrorMessage = "An unexpected error has occurred"

var ErrNotFound = errors.New("todo item not found")

type TodoItem struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
}

// APIError is a non-2xx answer from the API. Message holds the response body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("todo api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("todo api: %d %s", e.StatusCode, e.Message)
}

// UserMessage returns the text to show for err: the API's own message for a
// 400, a generic message for anything else.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && apiErr.Message != "" {
		return apiErr.Message
	}
	return UnexpectedErrorMessage
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListIncomplete(ctx context.Context) ([]TodoItem, error) {
	var items []TodoItem
	if err := c.do(ctx, http.MethodGet, "/todoItems", nil, http.StatusOK, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Get(ctx context.Context, id uuid.UUID) (TodoItem, error) {
	var item TodoItem
	err := c.do(ctx, http.MethodGet, "/todoItems/"+id.String(), nil, http.StatusOK, &item)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return TodoItem{}, ErrNotFound
	}
	return item, err
}

func (c *Client) Create(ctx context.Context, description string) (TodoItem, error) {
	var created TodoItem
	body := map[string]string{"description": description}
	if err := c.do(ctx, http.MethodPost, "/todoItems", body, http.StatusCreated, &created); err != nil {
		return TodoItem{}, err
	}
	return created, nil
}

// Update replaces the stored item with item.
func (c *Client) Update(ctx context.Context, item TodoItem) error {
	return c.do(ctx, http.MethodPut, "/todoItems/"+item.ID.String(), item, http.StatusNoContent, nil)
}

// MarkComplete sends only the id and the completion flag.
func (c *Client) MarkComplete(ctx context.Context, id uuid.UUID) error {
	body := struct {
		ID          uuid.UUID `json:"id"`
		IsCompleted bool      `json:"isCompleted"`
	}{ID: id, IsCompleted: true}
	return c.do(ctx, http.MethodPut, "/todoItems/"+id.String(), body, http.StatusNoContent, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
