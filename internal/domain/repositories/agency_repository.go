package repositories

import (
	"context"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

// QueryResult is the ordered outcome of one validated SELECT.
type QueryResult struct {
	Rows    []entities.Row
	Columns []string
}

// Count returns the number of result rows.
func (r *QueryResult) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// AgencyRepository is the query-execution collaborator over the read-only
// agency catalog. ExecuteSelect must only ever receive strings that already
// passed the safety gate; the adapter enforces this a second time.
type AgencyRepository interface {
	// ExecuteSelect runs a validated SELECT with optional bound parameters.
	ExecuteSelect(ctx context.Context, query string, params ...any) (*QueryResult, error)

	// KnownValues returns a snapshot of distinct values for the fields the
	// fuzzy matcher works over.
	KnownValues(ctx context.Context) (map[entities.MatchField][]string, error)

	// Stats returns catalog aggregates.
	Stats(ctx context.Context) (*entities.CatalogStats, error)
}
