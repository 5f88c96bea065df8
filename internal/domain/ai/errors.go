package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnavailable the collaborator could not complete the call (network,
// open circuit, provider 5xx, empty response).
var ErrUnavailable = errors.New("ai collaborator unavailable")
