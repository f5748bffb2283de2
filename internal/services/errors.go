package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

var (
	ErrNoJSONContent    = errors.New("no JSON-shaped content found")
	ErrNoValidCandidate = errors.New("no candidate satisfied the required-field contract")
)

// ExtractionError reports that a model reply yielded no usable CandidateProfile.
// Kind is one of ErrNoJSONContent or ErrNoValidCandidate.
type ExtractionError struct {
	Kind       error
	Candidates int
}

func (e *ExtractionError) Error() string {
	return e.Kind.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Kind
}

// DocumentReadError is returned when a resume cannot be turned into text.
type DocumentReadError struct {
	Filename string
	Cause    error
}

func (e *DocumentReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to read document %q: %v", e.Filename, e.Cause)
	}
	return fmt.Sprintf("failed to read document %q", e.Filename)
}

func (e *DocumentReadError) Unwrap() error {
	return e.Cause
}

// ModelError is a backend-specific model failure.
type ModelError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ModelError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "model request failed"
	}
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// ModelUnavailableError means the backend could not be reached or refused the
// request for capacity reasons.
type ModelUnavailableError struct {
	*ModelError
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.ModelError
}

// ModelTimeoutError means the backend did not answer within the deadline.
type ModelTimeoutError struct {
	*ModelError
}

func (e *ModelTimeoutError) Unwrap() error {
	return e.ModelError
}

// IsRetryableModelError reports whether another attempt may succeed.
func IsRetryableModelError(err error) bool {
	var unavailable *ModelUnavailableError
	var timeout *ModelTimeoutError
	return errors.As(err, &unavailable) || errors.As(err, &timeout)
}

// classifyModelError maps transport and API errors to the model error kinds.
func classifyModelError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var (
		unavailable *ModelUnavailableError
		timeout     *ModelTimeoutError
		generic     *ModelError
	)
	if errors.As(err, &unavailable) || errors.As(err, &timeout) || errors.As(err, &generic) {
		return err
	}

	base := &ModelError{Provider: provider, Cause: err}

	if errors.Is(err, context.DeadlineExceeded) {
		base.Message = "request timed out"
		return &ModelTimeoutError{ModelError: base}
	}

	if code, msg, ok := apiStatus(err); ok {
		base.StatusCode = code
		base.Message = msg
		switch code {
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return &ModelTimeoutError{ModelError: base}
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable:
			return &ModelUnavailableError{ModelError: base}
		default:
			return base
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		base.Message = "request timed out"
		return &ModelTimeoutError{ModelError: base}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		base.Message = "backend unreachable"
		return &ModelUnavailableError{ModelError: base}
	}

	return base
}

func apiStatus(err error) (int, string, bool) {
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code, geminiErr.Status, true
	}

	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return geminiErrPtr.Code, geminiErrPtr.Status, true
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) && openaiErr != nil {
		return openaiErr.StatusCode, http.StatusText(openaiErr.StatusCode), true
	}

	return 0, "", false
}
