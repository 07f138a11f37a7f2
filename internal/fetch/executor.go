// Package fetch implements cursor pagination over a GraphQL-style query
// interface, with bounded retries for transient failures and batched
// resolution of identifier sets.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout and ErrConnection are wrapped by executors to mark transient
	// transport failures that are worth retrying.
	ErrTimeout    = errors.New("request timed out")
	ErrConnection = errors.New("connection failed")

	// ErrRetriesExhausted is returned once a page kept failing with transient
	// errors past the retry budget.
	ErrRetriesExhausted = errors.New("fetch retries exhausted")
)

type Request struct {
	Query     string
	Variables map[string]any
}

type QueryError struct {
	Message string `json:"message"`
}

// Response is what the source answered. StatusCode is the HTTP status; Data
// and Errors come from the GraphQL envelope when the status was 200.
type Response struct {
	StatusCode int
	Data       map[string]json.RawMessage
	Errors     []QueryError
}

// Executor runs one query. Transport failures are returned as errors
// wrapping ErrTimeout or ErrConnection; HTTP level failures are reported
// through Response.StatusCode instead.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// SourceError describes why a fetch stopped early. It is carried in
// Result.Cause rather than returned, the items read so far stay usable.
type SourceError struct {
	StatusCode int
	Messages   []string
	Err        error
}

func (e *SourceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("source request failed: %v", e.Err)
	case len(e.Messages) > 0:
		return fmt.Sprintf("source returned errors: %s", strings.Join(e.Messages, "; "))
	default:
		return fmt.Sprintf("source returned status %d", e.StatusCode)
	}
}

func (e *SourceError) Unwrap() error { return e.Err }

func sourceError(resp *Response, err error) *SourceError {
	srcErr := &SourceError{Err: err}
	if resp != nil {
		srcErr.StatusCode = resp.StatusCode
		for _, qe := range resp.Errors {
			srcErr.Messages = append(srcErr.Messages, qe.Message)
		}
	}
	return srcErr
}
