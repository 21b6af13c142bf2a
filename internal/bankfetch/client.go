// Package bankfetch downloads a question bank published over HTTP, for
// installs that pull the bank from a shared server instead of shipping the
// JSON file alongside the binary.
package bankfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cippe-prep/internal/catalog"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient}
}

// Fetch downloads and decodes the question bank at url. The result is the
// raw question list; catalog.Load still owns validation, so a bank that
// decodes but violates the question invariants fails there, not here.
func (c *Client) Fetch(ctx context.Context, url string) ([]catalog.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch question bank: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bank server returned status %d", resp.StatusCode)
	}

	var raw []catalog.Question
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return raw, nil
}

// LoadBank builds the validated catalog from either source: the URL wins
// when set, the file path otherwise.
func LoadBank(ctx context.Context, url, path string) (*catalog.Catalog, error) {
	if strings.TrimSpace(url) != "" {
		raw, err := NewClient(nil).Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		return catalog.Load(raw)
	}
	return catalog.LoadFile(path)
}
