package entities

import "time"

// ReportStep is the position in the linear complaint-intake flow.
type ReportStep int

const (
	StepAgencyName ReportStep = iota + 1
	StepCity
	StepDetails
	StepContact
	StepDone
)

// TotalReportSteps is the number of user-facing intake steps.
const TotalReportSteps = 4

// Label names the kind of input collected at a step, used when asking the
// model to validate it.
func (s ReportStep) Label() string {
	switch s {
	case StepAgencyName:
		return "agency name"
	case StepCity:
		return "city name"
	case StepDetails:
		return "complaint details"
	case StepContact:
		return "contact info"
	}
	return "input"
}

// ComplaintReport is one completed intake, persisted once the contact step
// is answered or skipped. ContactInfo is empty for anonymous reports.
type ComplaintReport struct {
	ID          string    `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	AgencyName  string    `db:"agency_name" json:"agency_name"`
	City        string    `db:"city" json:"city"`
	Details     string    `db:"details" json:"details"`
	ContactInfo string    `db:"contact_info" json:"contact_info,omitempty"`
	Language    Language  `db:"language" json:"language"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
