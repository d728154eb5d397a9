package factcheck

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// keywordRule maps answer keywords to a category. Keywords are matched as prefixes of
// the answer's words so inflected forms still match.
type keywordRule struct {
	category Category
	keywords []string
}

// fallbackRules is evaluated in order; the first matching rule wins.
var fallbackRules = []keywordRule{
	{CategorySuppressed, []string{"spam", "garbage", "junk", "advert", "scam", "спам", "мусор", "реклам"}},
	{CategoryNews, []string{"news", "новост"}},
	{CategoryEntertainment, []string{"entertainment", "развлеч"}},
	{CategoryOther, []string{"other", "другое", "прочее"}},
}

var (
	negativeAnswers = []string{"no", "not", "нет", "не"}
	positiveAnswers = []string{"yes", "да", "spam", "спам", "advertising", "реклама"}
)

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ClassifyAnswer guesses a category from a short free-text answer of the form
// "category | comment". The part before the first "|" decides; the whole answer is
// scanned only when that part names no category. A keyword directly preceded by a
// negation ("not spam", "не спам") does not count.
func ClassifyAnswer(answer string) Category {
	if head, _, found := strings.Cut(answer, "|"); found {
		if c, ok := matchRule(words(head)); ok {
			return c
		}
	}
	if c, ok := matchRule(words(answer)); ok {
		return c
	}
	return CategoryOther
}

func matchRule(ws []string) (Category, bool) {
	for _, rule := range fallbackRules {
		for i, w := range ws {
			if i > 0 && lo.Contains(negativeAnswers, ws[i-1]) {
				continue
			}
			if lo.SomeBy(rule.keywords, func(k string) bool { return strings.HasPrefix(w, k) }) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// SpamAnswer reads a yes/no spam answer. ok is false when the answer is neither.
func SpamAnswer(answer string) (spam bool, ok bool) {
	ws := words(answer)
	for _, w := range ws {
		if lo.Contains(negativeAnswers, w) {
			return false, true
		}
	}
	for _, w := range ws {
		if lo.Contains(positiveAnswers, w) {
			return true, true
		}
	}
	return false, false
}
