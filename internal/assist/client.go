// Package assist talks to the AI sidecar: content search, tagging,
// summaries, document chat, and natural-language commands. The sidecar
// owns all language-model work; this package only moves requests and
// answers across, cancelling stale ones.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cloudflow/cloudflow/internal/metrics"
	"github.com/cloudflow/cloudflow/pkg/retry"
)

// Client is the HTTP client for the AI sidecar.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config
}

// Config holds sidecar client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
}

// NewClient creates a sidecar client. An empty BaseURL yields a nil
// client; callers treat that as "assist features off".
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.Attempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
	}
}

// Match is one content-search hit from the sidecar.
type Match struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet,omitempty"`
}

// Search asks the sidecar which files' content matches query. files
// maps entity ID to current content.
func (c *Client) Search(ctx context.Context, query string, files map[string]string) ([]Match, error) {
	var resp struct {
		Matches []Match `json:"matches"`
	}
	err := c.post(ctx, "/ai-search", map[string]any{
		"query": query,
		"files": files,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// GenerateTags asks for descriptive tags of one file's content.
func (c *Client) GenerateTags(ctx context.Context, name, content string) ([]string, error) {
	var resp struct {
		Tags []string `json:"tags"`
	}
	err := c.post(ctx, "/generate-tags", map[string]any{
		"name":    name,
		"content": content,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// Summarize asks for a short summary of one file's content.
func (c *Client) Summarize(ctx context.Context, name, content string) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	err := c.post(ctx, "/summarize", map[string]any{
		"name":    name,
		"content": content,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Summary, nil
}

// Chat asks a question grounded on one document's content.
func (c *Client) Chat(ctx context.Context, name, content, question string) (string, error) {
	var resp struct {
		Answer string `json:"answer"`
	}
	err := c.post(ctx, "/chat-with-document", map[string]any{
		"name":     name,
		"content":  content,
		"question": question,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Action is a structured command the sidecar derived from natural
// language.
type Action struct {
	Action    string   `json:"action"`
	Names     []string `json:"names,omitempty"`
	NewName   string   `json:"new_name,omitempty"`
	TargetDir string   `json:"target_dir,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Interpret turns a natural-language command into a structured action.
// listing carries the names visible in the current folder so the model
// can resolve references.
func (c *Client) Interpret(ctx context.Context, command string, listing []string) (Action, error) {
	var resp Action
	err := c.post(ctx, "/ai-assistant", map[string]any{
		"command": command,
		"listing": listing,
	}, &resp)
	return resp, err
}

// post sends a JSON request and decodes the JSON response, retrying
// transient transport and 5xx failures.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + path
	return retry.Do(ctx, c.retryConfig, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.RecordAssistRequest(path, "error")
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			metrics.RecordAssistRequest(path, "error")
			io.Copy(io.Discard, resp.Body)
			return retry.Transient(fmt.Errorf("sidecar %s: status %d", path, resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			metrics.RecordAssistRequest(path, "rejected")
			return fmt.Errorf("sidecar %s: status %d", path, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.RecordAssistRequest(path, "error")
			return fmt.Errorf("decode sidecar response: %w", err)
		}
		metrics.RecordAssistRequest(path, "ok")
		return nil
	})
}
