package goszakup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/nurpe/goszakup-contracts/internal/config"
	"github.com/nurpe/goszakup-contracts/internal/fetch"
)

// Client posts GraphQL queries to the public procurement API.
type Client struct {
	url   string
	token string
	http  *http.Client
}

func NewClient(cfg config.SourceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:   cfg.URL,
		token: cfg.Token,
		http:  &http.Client{Timeout: timeout},
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []fetch.QueryError         `json:"errors"`
}

func (c *Client) Execute(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	body, err := json.Marshal(graphQLRequest{Query: req.Query, Variables: req.Variables})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &fetch.Response{StatusCode: resp.StatusCode}, nil
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", fetch.ErrTimeout, err)
		}
		if droppedConnection(err) {
			return nil, fmt.Errorf("%w: %v", fetch.ErrConnection, err)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &fetch.Response{
		StatusCode: resp.StatusCode,
		Data:       envelope.Data,
		Errors:     envelope.Errors,
	}, nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", fetch.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", fetch.ErrTimeout, err)
	}
	if droppedConnection(err) {
		return fmt.Errorf("%w: %v", fetch.ErrConnection, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", fetch.ErrConnection, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", fetch.ErrConnection, err)
	}
	return fmt.Errorf("send request: %w", err)
}

// droppedConnection reports a connection the server closed or reset
// before the response was complete.
func droppedConnection(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}
