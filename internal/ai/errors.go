// Package ai provides the generation provider pool, error classification,
// and the fallback gateway used by every pipeline.
package ai

import (
	"errors"
	"strings"
)

// Classification labels a failed generation call for failover and user
// messaging decisions.
type Classification string

const (
	// ClassQuota is a provider-reported rate/quota/billing limit. The
	// gateway advances to the next tier immediately; if none remains the
	// user gets a distinct "come back later" message.
	ClassQuota Classification = "quota"

	// ClassTransient covers network errors, timeouts and 5xx responses.
	// The gateway advances; exhaustion is reported as "please resend".
	ClassTransient Classification = "transient"

	// ClassFatal is a malformed request or missing configuration. The
	// gateway aborts the tier walk immediately.
	ClassFatal Classification = "fatal"
)

// ErrNoProviders is returned when a capability has zero configured providers.
var ErrNoProviders = errors.New("no providers configured for capability")

// ErrNativeAudioUnavailable signals that a provider cannot service audio input
// directly. It is deliberately NOT a Classification: it changes pipeline shape
// (fall back to transcribe-then-generate) rather than advancing tiers.
var ErrNativeAudioUnavailable = errors.New("native audio not available")

// Classify determines the classification of a provider error.
// Pure function: no side effects, classification is computed once by the
// gateway and never re-derived.
func Classify(err error) Classification {
	if err == nil {
		return ClassTransient
	}
	if errors.Is(err, ErrNoProviders) {
		return ClassFatal
	}
	msg := err.Error()
	if IsQuotaMessage(msg) {
		return ClassQuota
	}
	if IsFatalMessage(msg) {
		return ClassFatal
	}
	// Timeouts, connection resets, 5xx and anything unrecognized: the next
	// tier may still succeed, and the user message ("please resend") is the
	// right default for unknowns.
	return ClassTransient
}

// IsQuotaMessage checks if a message indicates rate/quota limiting or a
// billing problem. Both map to the same user-facing outcome: the provider
// has capacity limits, come back later.
func IsQuotaMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)

	// HTTP 429
	if strings.Contains(lower, "429") {
		return true
	}

	// Rate/quota vocabulary
	if strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "quota exceeded") ||
		strings.Contains(lower, "exceeded your current quota") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "resource has been exhausted") ||
		strings.Contains(lower, "usage limit") ||
		strings.Contains(lower, "requests per minute") ||
		strings.Contains(lower, "requests per day") {
		return true
	}

	// Billing vocabulary
	if strings.Contains(lower, "402") ||
		strings.Contains(lower, "payment required") ||
		strings.Contains(lower, "insufficient credits") ||
		strings.Contains(lower, "insufficient_quota") ||
		strings.Contains(lower, "credit balance") ||
		strings.Contains(lower, "billing") {
		return true
	}

	return false
}

// IsFatalMessage checks if a message indicates a malformed request or broken
// configuration. Retrying another tier with the same request cannot help.
func IsFatalMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "invalid_request_error") ||
		strings.Contains(lower, "invalid request format") ||
		strings.Contains(lower, "malformed") ||
		strings.Contains(lower, "schema validation") ||
		strings.Contains(lower, "invalid_argument") ||
		strings.Contains(lower, "no providers configured") {
		return true
	}

	// 400 without quota vocabulary: the request itself is broken
	if strings.Contains(lower, "400") && strings.Contains(lower, "bad request") {
		return true
	}

	return false
}
