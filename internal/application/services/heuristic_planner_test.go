package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

func TestHeuristicQueryPlanner_Authorization(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	t.Run("authorized agencies restricts to the positive value", func(t *testing.T) {
		result := planner.Plan("show me all authorized agencies")
		require.NotNil(t, result)
		assert.Contains(t, result.Query, entities.ColIsAuthorized)
		require.Len(t, result.Params, 1)
		assert.Equal(t, entities.AuthorizedYes, result.Params[0])
		assert.Contains(t, result.Query, "LIMIT")
	})

	t.Run("negation flips to the negative value", func(t *testing.T) {
		result := planner.Plan("list agencies that are not authorized")
		require.NotNil(t, result)
		require.Len(t, result.Params, 1)
		assert.Equal(t, entities.AuthorizedNo, result.Params[0])
	})

	t.Run("arabic negation flips to the negative value", func(t *testing.T) {
		result := planner.Plan("اعرض الشركات غير معتمدة في القائمة الكاملة")
		require.NotNil(t, result)
		require.Len(t, result.Params, 1)
		assert.Equal(t, entities.AuthorizedNo, result.Params[0])
	})

	t.Run("counting switches to an aggregate without a limit", func(t *testing.T) {
		result := planner.Plan("how many authorized hajj agencies are there in total")
		require.NotNil(t, result)
		assert.Contains(t, result.Query, "COUNT")
		assert.NotContains(t, result.Query, "LIMIT")
	})
}

func TestHeuristicQueryPlanner_EntityLookup(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	result := planner.Plan("Al Safa Travel")
	require.NotNil(t, result)
	assert.Equal(t, entities.QueryKindHeuristic, result.Kind)
	assert.Contains(t, result.Query, entities.ColCompanyEN)
	assert.Contains(t, result.Query, entities.ColCompanyAR)
	assert.Contains(t, result.Query, entities.ColCity)
	assert.Contains(t, result.Query, entities.ColCountry)
	assert.Contains(t, result.Query, "LOWER")
	require.NotEmpty(t, result.Params)
	assert.Equal(t, "al safa travel", result.Params[0])
}

func TestHeuristicQueryPlanner_EntityLookupMatchesExactly(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	result := planner.Plan("Jeddah?")
	require.NotNil(t, result)
	assert.NotContains(t, result.Query, "LIKE")
	require.NotEmpty(t, result.Params)
	for _, param := range result.Params {
		assert.Equal(t, "jeddah", param)
	}
}

func TestHeuristicQueryPlanner_ShortAuthorizationPhrasesAreLookups(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	for _, question := range []string{"authorized agencies", "not authorized"} {
		result := planner.Plan(question)
		require.NotNil(t, result, question)
		assert.NotContains(t, result.Query, entities.ColIsAuthorized, question)
		assert.Contains(t, result.Query, "LOWER", question)
		require.NotEmpty(t, result.Params, question)
		assert.Equal(t, question, result.Params[0], question)
	}
}

func TestHeuristicQueryPlanner_DistinctListings(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	t.Run("country listing is distinct, not an aggregate", func(t *testing.T) {
		result := planner.Plan("which countries do the agencies operate from exactly")
		require.NotNil(t, result)
		assert.Contains(t, strings.ToUpper(result.Query), "DISTINCT")
		assert.NotContains(t, result.Query, "COUNT(")
		assert.Contains(t, result.Query, entities.ColCountry)
	})

	t.Run("count as a bare token still aggregates", func(t *testing.T) {
		result := planner.Plan("count the countries represented across the whole catalog")
		require.NotNil(t, result)
		assert.Contains(t, result.Query, "COUNT(DISTINCT")
	})

	t.Run("country counting is a distinct aggregate", func(t *testing.T) {
		result := planner.Plan("how many countries are covered by these hajj agencies")
		require.NotNil(t, result)
		assert.Contains(t, result.Query, "COUNT(DISTINCT")
		assert.NotContains(t, result.Query, "LIMIT")
	})

	t.Run("arabic city listing", func(t *testing.T) {
		result := planner.Plan("ما هي المدن التي توجد بها شركات الحج المسجلة هنا")
		require.NotNil(t, result)
		assert.Contains(t, result.Query, entities.ColCity)
	})
}

func TestHeuristicQueryPlanner_EmailRule(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	result := planner.Plan("show me every agency with an email address listed")
	require.NotNil(t, result)
	assert.Contains(t, result.Query, entities.ColEmail)
}

func TestHeuristicQueryPlanner_CatchAll(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	result := planner.Plan("please show the whole register of hajj travel agencies")
	require.NotNil(t, result)
	assert.Contains(t, result.Query, "LIMIT")
}

func TestHeuristicQueryPlanner_NoRule(t *testing.T) {
	planner := NewHeuristicQueryPlanner()

	assert.Nil(t, planner.Plan(""))
	assert.Nil(t, planner.Plan("what is the weather forecast going to be during the pilgrimage season"))
}

func TestHeuristicQueryPlanner_OutputPassesSafetyGate(t *testing.T) {
	planner := NewHeuristicQueryPlanner()
	filter := NewQuerySafetyFilter()

	for _, question := range []string{
		"Al Safa Travel",
		"show me all authorized agencies",
		"how many countries are covered by these hajj agencies",
		"show me every agency with an email address listed",
		"please show the whole register of hajj travel agencies",
	} {
		result := planner.Plan(question)
		require.NotNil(t, result, question)
		_, err := filter.Validate(result.Query)
		assert.NoError(t, err, question)
	}
}
