package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

func writeGoldenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGoldenCases(t *testing.T) {
	t.Run("loads a well formed file", func(t *testing.T) {
		path := writeGoldenFile(t, `[
			{"id": "g1", "utterance": "hello", "expected_intent": "GREETING",
			 "expected_language": "en", "difficulty": "easy"},
			{"id": "g2", "utterance": "أظهر لي الشركات المعتمدة", "expected_intent": "DATABASE",
			 "expected_language": "ar", "query_markers": ["is_authorized"], "difficulty": "medium"}
		]`)

		cases, err := LoadGoldenCases(path)
		require.NoError(t, err)
		require.Len(t, cases, 2)
		assert.Equal(t, entities.IntentDatabase, cases[1].ExpectedIntent)
		assert.Equal(t, []string{"is_authorized"}, cases[1].QueryMarkers)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGoldenCases(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeGoldenFile(t, `{"not": "an array"}`)
		_, err := LoadGoldenCases(path)
		assert.Error(t, err)
	})
}

func TestValidateGoldenCases(t *testing.T) {
	valid := GoldenCase{
		ID:               "g1",
		Utterance:        "hello",
		ExpectedIntent:   entities.IntentGreeting,
		ExpectedLanguage: entities.LanguageEnglish,
		Difficulty:       "easy",
	}

	t.Run("accepts valid cases", func(t *testing.T) {
		assert.NoError(t, ValidateGoldenCases([]GoldenCase{valid}))
	})

	t.Run("rejects missing id", func(t *testing.T) {
		c := valid
		c.ID = ""
		assert.Error(t, ValidateGoldenCases([]GoldenCase{c}))
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		assert.Error(t, ValidateGoldenCases([]GoldenCase{valid, valid}))
	})

	t.Run("rejects missing utterance", func(t *testing.T) {
		c := valid
		c.Utterance = ""
		assert.Error(t, ValidateGoldenCases([]GoldenCase{c}))
	})

	t.Run("rejects unknown intent", func(t *testing.T) {
		c := valid
		c.ExpectedIntent = "SOMETHING"
		assert.Error(t, ValidateGoldenCases([]GoldenCase{c}))
	})

	t.Run("rejects unknown language", func(t *testing.T) {
		c := valid
		c.ExpectedLanguage = "fr"
		assert.Error(t, ValidateGoldenCases([]GoldenCase{c}))
	})

	t.Run("rejects unknown difficulty", func(t *testing.T) {
		c := valid
		c.Difficulty = "impossible"
		assert.Error(t, ValidateGoldenCases([]GoldenCase{c}))
	})
}
