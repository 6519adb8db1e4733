package services

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

const (
	lookupRowLimit = 50
	listRowLimit   = 100
)

// bulkWords mark a question as a listing or counting request rather than a
// single-entity lookup.
var bulkWords = []string{
	"all", "list", "show", "count", "how many", "every",
	"كل", "جميع", "اعرض", "أظهر", "اظهر", "قائمة", "كم",
}

// countWords switch a rule to its aggregate form. Matched as whole tokens
// so "country" and "countries" never read as counting requests.
var countWords = []string{"how many", "count", "كم", "عدد"}

var negationWords = []string{"not ", "non-", "unauthorized", "غير"}

// HeuristicQueryPlanner maps recognizable question shapes onto fixed query
// templates. It runs when generation is unavailable or unusable, and it never
// guesses: an unrecognized question yields no plan at all.
type HeuristicQueryPlanner struct {
	dialect goqu.DialectWrapper
}

// NewHeuristicQueryPlanner creates the fallback planner.
func NewHeuristicQueryPlanner() *HeuristicQueryPlanner {
	return &HeuristicQueryPlanner{dialect: goqu.Dialect("postgres")}
}

// Plan returns a templated query for the question, or nil when no rule
// matches. Rules are ordered; the first match wins.
func (p *HeuristicQueryPlanner) Plan(question string) *entities.SynthesisResult {
	normalized := strings.ToLower(strings.TrimSpace(question))
	if normalized == "" {
		return nil
	}

	if p.isEntityLookup(normalized) {
		return p.entityLookup(normalized)
	}

	switch {
	case containsAny(normalized, "authorized", "authorised", "معتمد"):
		return p.authorizationQuery(normalized)
	case containsAny(normalized, "email", "mail", "بريد", "ايميل", "إيميل"):
		return p.emailQuery()
	case containsAny(normalized, "countries", "country", "دول", "بلد"):
		return p.distinctQuery(entities.ColCountry, normalized, "countries represented in the catalog")
	case containsAny(normalized, "cities", "city", "مدن", "مدينة"):
		return p.distinctQuery(entities.ColCity, normalized, "cities represented in the catalog")
	case containsAny(normalized, bulkWords...):
		return p.listAllQuery()
	}

	return nil
}

// isEntityLookup treats short questions without bulk vocabulary as a name or
// place lookup.
func (p *HeuristicQueryPlanner) isEntityLookup(normalized string) bool {
	if len(strings.Fields(normalized)) > 6 {
		return false
	}
	return !containsAny(normalized, bulkWords...)
}

func (p *HeuristicQueryPlanner) entityLookup(normalized string) *entities.SynthesisResult {
	term := strings.Trim(normalized, " .,!?؟،\"'")
	query, args, err := p.dialect.
		From(entities.AgencyTable).
		Where(goqu.Or(
			goqu.Func("LOWER", goqu.C(entities.ColCompanyEN)).Eq(term),
			goqu.Func("LOWER", goqu.C(entities.ColCompanyAR)).Eq(term),
			goqu.Func("LOWER", goqu.C(entities.ColFormattedAddress)).Eq(term),
			goqu.Func("LOWER", goqu.C(entities.ColCity)).Eq(term),
			goqu.Func("LOWER", goqu.C(entities.ColCityAR)).Eq(term),
			goqu.Func("LOWER", goqu.C(entities.ColCountry)).Eq(term),
			goqu.Func("LOWER", goqu.C(entities.ColCountryAR)).Eq(term),
		)).
		Limit(lookupRowLimit).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil
	}
	return &entities.SynthesisResult{
		Query:       query,
		Params:      args,
		Kind:        entities.QueryKindHeuristic,
		Filters:     []string{"entity lookup across name, address, city and country"},
		Explanation: "matched the question text exactly against every descriptive column",
	}
}

func (p *HeuristicQueryPlanner) authorizationQuery(normalized string) *entities.SynthesisResult {
	value := entities.AuthorizedYes
	filter := "authorized agencies only"
	if containsAny(normalized, negationWords...) {
		value = entities.AuthorizedNo
		filter = "unauthorized agencies only"
	}

	builder := p.dialect.From(entities.AgencyTable).
		Where(goqu.C(entities.ColIsAuthorized).Eq(value))

	if hasKeyword(normalized, countWords) {
		query, args, err := builder.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
		if err != nil {
			return nil
		}
		return &entities.SynthesisResult{
			Query:       query,
			Params:      args,
			Kind:        entities.QueryKindHeuristic,
			Filters:     []string{filter},
			Explanation: "counted agencies by authorization status",
		}
	}

	query, args, err := builder.Limit(listRowLimit).Prepared(true).ToSQL()
	if err != nil {
		return nil
	}
	return &entities.SynthesisResult{
		Query:       query,
		Params:      args,
		Kind:        entities.QueryKindHeuristic,
		Filters:     []string{filter},
		Explanation: "listed agencies by authorization status",
	}
}

func (p *HeuristicQueryPlanner) emailQuery() *entities.SynthesisResult {
	query, args, err := p.dialect.
		From(entities.AgencyTable).
		Select(
			goqu.C(entities.ColCompanyEN),
			goqu.C(entities.ColCompanyAR),
			goqu.C(entities.ColEmail),
			goqu.C(entities.ColCity),
		).
		Where(goqu.C(entities.ColEmail).IsNotNull(), goqu.C(entities.ColEmail).Neq("")).
		Limit(listRowLimit).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil
	}
	return &entities.SynthesisResult{
		Query:       query,
		Params:      args,
		Kind:        entities.QueryKindHeuristic,
		Filters:     []string{"agencies with a contact email"},
		Explanation: "listed agencies that have an email address on file",
	}
}

func (p *HeuristicQueryPlanner) distinctQuery(column, normalized, what string) *entities.SynthesisResult {
	if hasKeyword(normalized, countWords) {
		query, args, err := p.dialect.
			From(entities.AgencyTable).
			Select(goqu.L("COUNT(DISTINCT ?)", goqu.C(column))).
			Prepared(true).
			ToSQL()
		if err != nil {
			return nil
		}
		return &entities.SynthesisResult{
			Query:       query,
			Params:      args,
			Kind:        entities.QueryKindHeuristic,
			Filters:     []string{what},
			Explanation: "counted distinct " + what,
		}
	}

	query, args, err := p.dialect.
		From(entities.AgencyTable).
		SelectDistinct(goqu.C(column)).
		Where(goqu.C(column).IsNotNull(), goqu.C(column).Neq("")).
		Order(goqu.C(column).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil
	}
	return &entities.SynthesisResult{
		Query:       query,
		Params:      args,
		Kind:        entities.QueryKindHeuristic,
		Filters:     []string{what},
		Explanation: "listed distinct " + what,
	}
}

func (p *HeuristicQueryPlanner) listAllQuery() *entities.SynthesisResult {
	query, args, err := p.dialect.
		From(entities.AgencyTable).
		Limit(listRowLimit).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil
	}
	return &entities.SynthesisResult{
		Query:       query,
		Params:      args,
		Kind:        entities.QueryKindHeuristic,
		Filters:     []string{"full catalog listing"},
		Explanation: "listed the catalog up to the row cap",
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
