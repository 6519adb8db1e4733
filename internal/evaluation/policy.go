package evaluation

import (
	"regexp"
	"strings"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s-]{7,}\d`)
)

var contactAskWords = []string{
	"email", "contact", "phone", "number", "reach",
	"بريد", "ايميل", "إيميل", "هاتف", "رقم", "تواصل",
}

// CheckReplyPolicy verifies a reply against the formatting policy: written in
// the expected language, free of raw URLs, and free of emails or phone
// numbers unless the question asked for contact details. Returns an empty
// string when the reply is compliant.
func CheckReplyPolicy(utterance string, reply string, expected entities.Language) string {
	if strings.TrimSpace(reply) == "" {
		return "empty reply"
	}

	if entities.DetectLanguage(reply) != expected {
		return "reply language does not match the question"
	}

	if urlPattern.MatchString(reply) {
		return "reply contains a raw URL"
	}

	if !asksForContact(utterance) {
		if emailPattern.MatchString(reply) {
			return "reply volunteers an email address"
		}
		if phonePattern.MatchString(reply) {
			return "reply volunteers a phone number"
		}
	}

	return ""
}

func asksForContact(utterance string) bool {
	lowered := strings.ToLower(utterance)
	for _, w := range contactAskWords {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}
