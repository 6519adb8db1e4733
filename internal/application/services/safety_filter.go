package services

import (
	"strings"

	apperrors "github.com/hajjtrust/agency-assistant/pkg/errors"
)

// deniedKeywords are rejected by substring match, case-insensitive. Substring
// matching over-rejects (a name containing "update" fails) and that is the
// accepted trade-off: false rejection is recoverable, execution of a mutating
// statement is not.
var deniedKeywords = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "ALTER", "CREATE",
	"EXEC", "EXECUTE", "TRUNCATE", "GRANT", "REVOKE", "REPLACE", "MERGE",
}

// QuerySafetyFilter is the single gate every candidate SQL string must pass
// before execution, regardless of where the candidate came from. It validates
// the string itself and never consults its provenance.
type QuerySafetyFilter struct{}

// NewQuerySafetyFilter creates the safety gate.
func NewQuerySafetyFilter() *QuerySafetyFilter {
	return &QuerySafetyFilter{}
}

// Validate returns the normalized query when it is acceptable, or an
// UNSAFE_QUERY error naming the reason. Normalization is limited to trimming
// whitespace and a trailing statement terminator, so validating an accepted
// query again returns it unchanged.
func (f *QuerySafetyFilter) Validate(query string) (string, error) {
	normalized := strings.TrimSpace(query)
	normalized = strings.TrimSuffix(normalized, ";")
	normalized = strings.TrimSpace(normalized)

	if normalized == "" {
		return "", apperrors.NewUnsafeQueryError("empty query")
	}

	upper := strings.ToUpper(normalized)
	if !strings.HasPrefix(upper, "SELECT") {
		return "", apperrors.NewUnsafeQueryError("query must start with SELECT")
	}

	for _, keyword := range deniedKeywords {
		if strings.Contains(upper, keyword) {
			return "", apperrors.NewUnsafeQueryError("query contains forbidden keyword " + keyword)
		}
	}

	return normalized, nil
}
