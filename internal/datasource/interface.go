// Package datasource contains the I/O boundary of the pipeline: the
// game-odds feed client, the poll client and the session token contract.
// A transport failure from any of these aborts the current refresh cycle
// only; the caller keeps its previous results.
package datasource

import "context"

// TokenProvider resolves the opaque session token that authorizes the odds
// feed request. The production resolver watches a live page for the rotating
// token; that mechanism lives outside this module, behind this interface.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken satisfies TokenProvider with a fixed token taken from
// configuration, the environment or a secrets store.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", NewDataSourceError("static_token", ErrCodeAuthenticationFailed, "no session token configured", nil)
	}
	return string(t), nil
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "server_error")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap exposes the underlying transport error.
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
