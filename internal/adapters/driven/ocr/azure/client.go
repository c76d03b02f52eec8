// Package azure is a ReadClient for the Azure Computer Vision Read API v3.2.
package azure

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

	"github.com/custodia-labs/homenet/internal/adapters/driven/ocr"
)

var _ ocr.ReadClient = (*Client)(nil)

// Wire constants for the Read API.
//
//nolint:gosec // G101: header name, not a credential.
const (
	AnalyzePath           = "/vision/v3.2/read/analyze"
	HeaderSubscriptionKey = "Ocp-Apim-Subscription-Key"
	HeaderOperation       = "Operation-Location"
	DefaultTimeout        = 30 * time.Second
)

// maxErrorBody caps how much of an error response is quoted in the error.
const maxErrorBody = 4 << 10

// Config holds the endpoint and key for a Computer Vision resource.
type Config struct {
	// Endpoint is the resource base URL, e.g. https://name.cognitiveservices.azure.com.
	Endpoint string

	// APIKey is sent as Ocp-Apim-Subscription-Key.
	APIKey string

	// Timeout bounds each HTTP request (default: 30s).
	Timeout time.Duration
}

// Client submits images and PDFs to the Read API.
type Client struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// readResponse is the GET payload of a read operation.
type readResponse struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []struct {
			Page  int `json:"page"`
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
	} `json:"analyzeResult"`
}

// NewClient creates a Read API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, errors.New("azure: endpoint and api key are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
	}, nil
}

// Submit posts the content for analysis and returns the Operation-Location URL.
func (c *Client) Submit(ctx context.Context, content io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+AnalyzePath, content)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(HeaderSubscriptionKey, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", statusError(resp)
	}

	operation := resp.Header.Get(HeaderOperation)
	if operation == "" {
		return "", fmt.Errorf("azure: response missing %s header", HeaderOperation)
	}
	return operation, nil
}

// GetResult fetches the state of a read operation.
func (c *Client) GetResult(ctx context.Context, operation string) (*ocr.ReadOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operation, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(HeaderSubscriptionKey, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed readResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	op := &ocr.ReadOperation{Status: parsed.Status, Raw: raw}
	for _, rr := range parsed.AnalyzeResult.ReadResults {
		page := ocr.Page{Number: rr.Page, Lines: make([]string, 0, len(rr.Lines))}
		for _, line := range rr.Lines {
			page.Lines = append(page.Lines, line.Text)
		}
		op.Pages = append(op.Pages, page)
	}
	return op, nil
}

func statusError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("azure error (status %d): failed to read response", resp.StatusCode)
	}
	return fmt.Errorf("azure error (status %d): %s", resp.StatusCode, string(bytes.TrimSpace(body)))
}
