package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

func TestCheckReplyPolicy(t *testing.T) {
	t.Run("clean english reply passes", func(t *testing.T) {
		violation := CheckReplyPolicy(
			"show me authorized agencies",
			"I found 12 authorized agencies. Would you like to narrow by city?",
			entities.LanguageEnglish)
		assert.Empty(t, violation)
	})

	t.Run("empty reply is flagged", func(t *testing.T) {
		assert.NotEmpty(t, CheckReplyPolicy("anything", "  ", entities.LanguageEnglish))
	})

	t.Run("wrong language is flagged", func(t *testing.T) {
		violation := CheckReplyPolicy(
			"أظهر لي الشركات المعتمدة",
			"Here are the authorized agencies you asked about today.",
			entities.LanguageArabic)
		assert.NotEmpty(t, violation)
	})

	t.Run("raw url is flagged", func(t *testing.T) {
		violation := CheckReplyPolicy(
			"show me agencies in Makkah",
			"See https://maps.example.com/agency for the location.",
			entities.LanguageEnglish)
		assert.Contains(t, violation, "URL")
	})

	t.Run("unsolicited email is flagged", func(t *testing.T) {
		violation := CheckReplyPolicy(
			"show me agencies in Makkah",
			"Al Safa Travel can be found at info@alsafa.example.org in Makkah.",
			entities.LanguageEnglish)
		assert.Contains(t, violation, "email")
	})

	t.Run("requested email is allowed", func(t *testing.T) {
		violation := CheckReplyPolicy(
			"what is the email of Al Safa Travel",
			"The email on file for Al Safa Travel is info@alsafa.example.org. Anything else?",
			entities.LanguageEnglish)
		assert.Empty(t, violation)
	})

	t.Run("unsolicited phone number is flagged", func(t *testing.T) {
		violation := CheckReplyPolicy(
			"show me agencies in Makkah",
			"You can call them on +966 12 345 6789 anytime.",
			entities.LanguageEnglish)
		assert.Contains(t, violation, "phone")
	})

	t.Run("requested contact details are allowed in arabic", func(t *testing.T) {
		violation := CheckReplyPolicy(
			"ما هو رقم هاتف شركة الصفا",
			"رقم هاتف شركة الصفا هو +966 12 345 6789. هل تحتاج شيئاً آخر؟",
			entities.LanguageArabic)
		assert.Empty(t, violation)
	})
}
