package models

// VariantAttempt is one search-term rewrite tried for a keyword. It is
// ephemeral and never persisted.
type VariantAttempt struct {
	SearchTerm string
	IsRetry    bool
}
