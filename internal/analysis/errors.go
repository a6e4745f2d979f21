package analysis

import (
	"errors"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrMissingCredential means no API key is configured. Nothing was sent.
	ErrMissingCredential = errors.New("brak klucza API Gemini. Skonfiguruj klucz w ustawieniach środowiska")

	// ErrEmptyResponse means the service answered without any text.
	ErrEmptyResponse = errors.New("nie udało się uzyskać analizy od modelu AI")

	// ErrMalformedResponse means the text did not match the declared schema.
	ErrMalformedResponse = errors.New("odpowiedź modelu AI nie jest zgodna z oczekiwanym formatem")

	// ErrInvalidCredential means the service rejected the API key.
	ErrInvalidCredential = errors.New("twój klucz API jest nieprawidłowy dla modelu Gemini. Pamiętaj, że klucze OpenAI i innych dostawców AI nie działają z modelem Gemini")
)

// ServiceError wraps any other transport or service failure. Its message is
// the message of the underlying error.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether resubmitting can help. Credential problems need
// the configuration fixed first.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrInvalidCredential):
		return false
	default:
		return true
	}
}


func isInvalidCredential(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErrorIsCredential(apiErr) {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrorIsCredential(*apiErrPtr) {
		return true
	}
	return strings.Contains(err.Error(), "API_KEY_INVALID")
}

func apiErrorIsCredential(e genai.APIError) bool {
	return e.Code == 401 || strings.Contains(e.Message, "API key not valid")
}

// invalidCredentialError shows only the user guidance but keeps the SDK
// error reachable through errors.As.
type invalidCredentialError struct {
	cause error
}

func (e *invalidCredentialError) Error() string {
	return ErrInvalidCredential.Error()
}

func (e *invalidCredentialError) Unwrap() []error {
	return []error{ErrInvalidCredential, e.cause}
}

// classify maps an SDK error onto the error taxonomy.
func classify(err error) error {
	if isInvalidCredential(err) {
		return &invalidCredentialError{cause: err}
	}
	return &ServiceError{Err: err}
}
