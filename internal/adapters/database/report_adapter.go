package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/domain/repositories"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/postgres"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/observability"
	apperrors "github.com/hajjtrust/agency-assistant/pkg/errors"
)

const reportTable = "complaint_reports"

// ReportAdapter implements the ReportRepository interface
type ReportAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
	metrics *observability.Metrics
}

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.ReportRepository {
	return &ReportAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
		metrics: metrics,
	}
}

// Create persists a completed complaint report. The ID and timestamp are
// assigned here when the caller left them zero.
func (a *ReportAdapter) Create(ctx context.Context, report *entities.ComplaintReport) error {
	if report.AgencyName == "" || report.Details == "" {
		return apperrors.NewValidationError("complaint report requires an agency name and details")
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	query, args, err := a.dialect.
		Insert(reportTable).
		Rows(goqu.Record{
			"id":           report.ID,
			"session_id":   report.SessionID,
			"agency_name":  report.AgencyName,
			"city":         report.City,
			"details":      report.Details,
			"contact_info": report.ContactInfo,
			"language":     string(report.Language),
			"created_at":   report.CreatedAt,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build report insert", err)
	}

	start := time.Now()
	_, err = a.client.DB().ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "create_report", time.Since(start))
	if err != nil {
		return apperrors.NewInternalError("failed to create complaint report", err)
	}

	return nil
}
