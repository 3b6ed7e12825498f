package ai

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		// Quota / rate limiting
		{"http 429", errors.New("unexpected status 429"), ClassQuota},
		{"rate limit phrase", errors.New("Rate limit reached for requests"), ClassQuota},
		{"rate_limit code", errors.New("error code: rate_limit_exceeded"), ClassQuota},
		{"too many requests", errors.New("Too Many Requests"), ClassQuota},
		{"gemini quota", errors.New("You exceeded your current quota, please check your plan"), ClassQuota},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = resource_exhausted"), ClassQuota},
		{"requests per minute", errors.New("limit of 15 requests per minute reached"), ClassQuota},

		// Billing maps to quota: same user-facing outcome
		{"payment required", errors.New("402 Payment Required"), ClassQuota},
		{"insufficient credits", errors.New("insufficient credits to complete request"), ClassQuota},
		{"credit balance", errors.New("your credit balance is too low"), ClassQuota},
		{"billing", errors.New("billing hard limit has been reached"), ClassQuota},

		// Fatal
		{"invalid request error", errors.New("invalid_request_error: messages must not be empty"), ClassFatal},
		{"malformed", errors.New("malformed JSON in request body"), ClassFatal},
		{"invalid argument", errors.New("rpc error: code = InvalidArgument desc = invalid_argument"), ClassFatal},
		{"plain 400", errors.New("400 Bad Request"), ClassFatal},
		{"no providers sentinel", ErrNoProviders, ClassFatal},
		{"wrapped no providers", fmt.Errorf("chat: %w", ErrNoProviders), ClassFatal},

		// Transient: default for everything else
		{"timeout", errors.New("context deadline exceeded"), ClassTransient},
		{"connection refused", errors.New("dial tcp: connection refused"), ClassTransient},
		{"server error", errors.New("unexpected status 503 Service Unavailable"), ClassTransient},
		{"connection reset", errors.New("read: connection reset by peer"), ClassTransient},
		{"unknown", errors.New("something odd happened"), ClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyStable(t *testing.T) {
	// Classification is computed from the error alone; the same error must
	// classify identically no matter how many times it is inspected.
	err := errors.New("429 too many requests")
	first := Classify(err)
	for i := 0; i < 5; i++ {
		if got := Classify(err); got != first {
			t.Fatalf("Classify changed between calls: %v then %v", first, got)
		}
	}
}

func TestIsQuotaMessage(t *testing.T) {
	if IsQuotaMessage("") {
		t.Error("empty message should not be quota")
	}
	if IsQuotaMessage("all good") {
		t.Error("benign message should not be quota")
	}
	if !IsQuotaMessage("QUOTA EXCEEDED") {
		t.Error("matching should be case-insensitive")
	}
}

func TestIsFatalMessage(t *testing.T) {
	if IsFatalMessage("") {
		t.Error("empty message should not be fatal")
	}
	// 400 with quota vocabulary stays out of fatal; IsQuotaMessage wins in
	// Classify because it is checked first.
	if got := Classify(errors.New("429 bad request rate limit")); got != ClassQuota {
		t.Errorf("quota vocabulary should take precedence, got %v", got)
	}
}
