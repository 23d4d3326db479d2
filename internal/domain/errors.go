package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited        = errors.New("fortune creation is on cooldown")
	ErrArtworkIncomplete  = errors.New("card library not fully populated")
	ErrNotInitialized     = errors.New("oracle not initialized")
	ErrAlreadyInitialized = errors.New("oracle already initialized")
	ErrFeeOutOfRange      = errors.New("fee out of range")
	ErrInvalidCardID      = errors.New("invalid card id")
	ErrCardBatchTooLarge  = errors.New("card batch too large")
	ErrArtworkTooLarge    = errors.New("card artwork too large")
	ErrFortuneNotFound    = errors.New("fortune not found")
	ErrInvalidIdentity    = errors.New("invalid identity")
	ErrInvalidSeed        = errors.New("invalid seed")
	ErrUnauthorized       = errors.New("invalid authority")
	ErrUpstreamLLM        = errors.New("upstream LLM failure")
	ErrInvalidLLMJSON     = errors.New("LLM returned invalid JSON after retry")
)

// RateLimitedError rejects a draw that arrived inside the identity's cooldown window.
type RateLimitedError struct {
	SecondsRemaining int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: %d seconds remaining", ErrRateLimited, e.SecondsRemaining)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// InvariantViolation is the panic value raised when a card id outside the pool
// reaches the classifier or formatter.
type InvariantViolation struct {
	Op   string
	Card CardID
}

func (v InvariantViolation) Error() string {
	return fmt.Sprintf("%s: card id %d outside [0,%d)", v.Op, v.Card, PoolSize)
}
