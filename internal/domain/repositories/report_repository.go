package repositories

import (
	"context"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

// ReportRepository persists completed complaint reports.
type ReportRepository interface {
	Create(ctx context.Context, report *entities.ComplaintReport) error
}
