package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/repositories"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/postgres"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/observability"
	apperrors "github.com/hajjtrust/agency-assistant/pkg/errors"
)

const knownValuesTTL = 5 * time.Minute

// AgencyAdapter implements the AgencyRepository interface over PostgreSQL.
// Known-value snapshots are cached in-process because the catalog changes
// rarely and the fuzzy matcher reads them on every turn.
type AgencyAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
	values  *lru.LRU[string, []string]
	metrics *observability.Metrics
}

// NewAgencyAdapter creates a new agency adapter. Metrics may be nil when
// telemetry is disabled.
func NewAgencyAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.AgencyRepository {
	return &AgencyAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
		values:  lru.NewLRU[string, []string](8, nil, knownValuesTTL),
		metrics: metrics,
	}
}

// ExecuteSelect runs a validated SELECT with optional bound parameters and
// returns dynamic rows. The statement must already have passed the safety
// gate; this adapter re-checks the verb as a last line of defense.
func (a *AgencyAdapter) ExecuteSelect(ctx context.Context, query string, params ...any) (*repositories.QueryResult, error) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return nil, apperrors.NewUnsafeQueryError("only SELECT statements can be executed")
	}

	start := time.Now()
	rows, err := a.client.DB().QueryxContext(ctx, trimmed, params...)
	observability.RecordDBMetric(ctx, a.metrics, "execute_select", time.Since(start))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to execute query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read result columns", err)
	}

	result := &repositories.QueryResult{Columns: columns}
	for rows.Next() {
		row := entities.Row{}
		if err := rows.MapScan(row); err != nil {
			return nil, apperrors.NewInternalError("failed to scan result row", err)
		}
		for key, value := range row {
			if raw, ok := value.([]byte); ok {
				row[key] = string(raw)
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate result rows", err)
	}

	return result, nil
}

// KnownValues returns distinct values per match field, served from the
// in-process snapshot when fresh.
func (a *AgencyAdapter) KnownValues(ctx context.Context) (map[entities.MatchField][]string, error) {
	known := make(map[entities.MatchField][]string, len(entities.MatchFields()))
	for _, field := range entities.MatchFields() {
		values, err := a.distinctValues(ctx, field)
		if err != nil {
			return nil, err
		}
		known[field] = values
	}
	return known, nil
}

func (a *AgencyAdapter) distinctValues(ctx context.Context, field entities.MatchField) ([]string, error) {
	if cached, ok := a.values.Get(string(field)); ok {
		return cached, nil
	}

	column := field.Column()
	query, args, err := a.dialect.
		From(entities.AgencyTable).
		SelectDistinct(goqu.C(column)).
		Where(goqu.C(column).IsNotNull(), goqu.C(column).Neq("")).
		Order(goqu.C(column).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build distinct values query", err)
	}

	start := time.Now()
	var values []string
	err = a.client.DB().SelectContext(ctx, &values, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "known_values", time.Since(start))
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to load distinct %s values", column), err)
	}

	a.values.Add(string(field), values)
	return values, nil
}

// Stats returns the catalog aggregates behind /api/stats.
func (a *AgencyAdapter) Stats(ctx context.Context) (*entities.CatalogStats, error) {
	query, _, err := a.dialect.
		From(entities.AgencyTable).
		Select(
			goqu.COUNT(goqu.Star()).As("total_agencies"),
			goqu.COUNT(goqu.Case().
				When(goqu.C(entities.ColIsAuthorized).Eq(entities.AuthorizedYes), 1)).
				As("authorized_agencies"),
			goqu.L("COUNT(DISTINCT ?)", goqu.C(entities.ColCountry)).As("countries"),
			goqu.L("COUNT(DISTINCT ?)", goqu.C(entities.ColCity)).As("cities"),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stats query", err)
	}

	start := time.Now()
	stats := &entities.CatalogStats{}
	err = a.client.DB().QueryRowxContext(ctx, query).Scan(
		&stats.TotalAgencies,
		&stats.AuthorizedAgencies,
		&stats.Countries,
		&stats.Cities,
	)
	observability.RecordDBMetric(ctx, a.metrics, "stats", time.Since(start))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load catalog stats", err)
	}

	return stats, nil
}
