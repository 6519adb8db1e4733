package entities

import "time"

// AgencyTable is the single logical table the assistant queries. The catalog
// is owned by an external administrative process and is read-only here.
const AgencyTable = "agencies"

// Agency column names. The synthesis prompt and the heuristic templates both
// describe this schema; a change here must be mirrored in both.
const (
	ColCompanyEN        = "hajj_company_en"
	ColCompanyAR        = "hajj_company_ar"
	ColFormattedAddress = "formatted_address"
	ColCity             = "city"
	ColCityAR           = "city_ar"
	ColCountry          = "country"
	ColCountryAR        = "country_ar"
	ColEmail            = "email"
	ColContactInfo      = "contact_info"
	ColRatingReviews    = "rating_reviews"
	ColIsAuthorized     = "is_authorized"
	ColGoogleMapsLink   = "google_maps_link"
	ColLinkValid        = "link_valid"
)

// AgencyColumns lists every column of the agencies table in display order.
func AgencyColumns() []string {
	return []string{
		ColCompanyEN, ColCompanyAR, ColFormattedAddress,
		ColCity, ColCityAR, ColCountry, ColCountryAR,
		ColEmail, ColContactInfo, ColRatingReviews,
		ColIsAuthorized, ColGoogleMapsLink, ColLinkValid,
	}
}

// Values of the is_authorized column. Unset means the ministry record could
// not be resolved either way.
const (
	AuthorizedYes = "Yes"
	AuthorizedNo  = "No"
)

// Agency is one catalog row, used by the seed loader and the stats query.
// Chat-path results stay as dynamic rows because the synthesized SELECT
// controls its own column list.
type Agency struct {
	ID               string    `db:"id"`
	CompanyEN        string    `db:"hajj_company_en"`
	CompanyAR        string    `db:"hajj_company_ar"`
	FormattedAddress string    `db:"formatted_address"`
	City             string    `db:"city"`
	CityAR           string    `db:"city_ar"`
	Country          string    `db:"country"`
	CountryAR        string    `db:"country_ar"`
	Email            string    `db:"email"`
	ContactInfo      string    `db:"contact_info"`
	RatingReviews    string    `db:"rating_reviews"`
	IsAuthorized     string    `db:"is_authorized"`
	GoogleMapsLink   string    `db:"google_maps_link"`
	LinkValid        bool      `db:"link_valid"`
	CreatedAt        time.Time `db:"created_at"`
}

// CatalogStats is the aggregate snapshot served on /api/stats.
type CatalogStats struct {
	TotalAgencies      int `json:"total_agencies"`
	AuthorizedAgencies int `json:"authorized_agencies"`
	Countries          int `json:"countries"`
	Cities             int `json:"cities"`
}

// MatchField identifies a column whose distinct values feed entity matching.
type MatchField string

const (
	FieldCompanyEN MatchField = "company_en"
	FieldCompanyAR MatchField = "company_ar"
	FieldCity      MatchField = "city"
	FieldCountry   MatchField = "country"
)

// MatchFields returns the fields the fuzzy matcher works over.
func MatchFields() []MatchField {
	return []MatchField{FieldCompanyEN, FieldCompanyAR, FieldCity, FieldCountry}
}

// Column returns the table column backing a match field.
func (f MatchField) Column() string {
	switch f {
	case FieldCompanyEN:
		return ColCompanyEN
	case FieldCompanyAR:
		return ColCompanyAR
	case FieldCity:
		return ColCity
	case FieldCountry:
		return ColCountry
	}
	return ""
}

// EntityMatchSet maps a match field to its ordered candidate values for the
// current turn. Advisory only: it feeds prompt hints and zero-row
// suggestions, never the safety gate.
type EntityMatchSet map[MatchField][]string

// IsEmpty reports whether no field produced any candidate.
func (m EntityMatchSet) IsEmpty() bool {
	for _, candidates := range m {
		if len(candidates) > 0 {
			return false
		}
	}
	return true
}
