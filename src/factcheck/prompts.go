package factcheck

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func stage1Prompt(text string, year, maxSources int) string {
	return fmt.Sprintf(`Analyze this message and decide whether its claims need fact-checking against trusted sources.

Message:
"""
%s
"""

Current year: %d. Use it for relative dates in search queries.

Rules:
1. Spam, advertising, personal chatter and pure entertainment do not need fact-checking.
2. For checkable claims propose up to %d sources, most authoritative first (priority 1 is highest).
3. Prefer official sites of mentioned companies, regulators and agencies, then major outlets.
4. Propose up to 3 search queries that would confirm or refute the claim.

Respond with JSON only:
{
  "needs_fact_check": true,
  "classification": "news|entertainment|personal|spam|other",
  "reasoning": "short explanation",
  "skip_reason": "why no check is needed, empty otherwise",
  "sources": [
    {"name": "Bank of Russia", "url": "https://www.cbr.ru", "domain": "cbr.ru", "why": "official exchange rates", "priority": 1}
  ],
  "recommended_queries": ["query"]
}`, text, year, maxSources)
}

func stage1StrictPrompt(text string, maxSources int) string {
	return fmt.Sprintf(`Return ONLY a valid JSON object, no prose and no markdown.
Keys: needs_fact_check (bool), classification (news|entertainment|personal|spam|other), reasoning (string), sources (array of {name, domain, url, why, priority}, at most %d), recommended_queries (array of at most 3 strings).

Message: %q`, maxSources, truncateRunes(text, 1000))
}

func verificationPrompt(text string, tier Tier, queries []string, social bool, year int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verify this message using web search restricted to the trusted sources below.\n\nMessage:\n\"\"\"\n%s\n\"\"\"\n\n", text)

	b.WriteString("Sources (highest priority first):\n")
	for _, c := range tier.Candidates {
		line := "- " + c.Name
		if c.URL != "" {
			line += " (" + c.URL + ")"
		} else if c.Domain != c.Name {
			line += " (" + c.Domain + ")"
		}
		if c.Rationale != "" {
			line += ": " + c.Rationale
		}
		b.WriteString(line + "\n")
	}

	if len(queries) > 0 {
		b.WriteString("\nSuggested search queries:\n")
		for _, q := range queries {
			b.WriteString("- " + q + "\n")
		}
	}

	if social {
		fmt.Fprintf(&b, `
Some sources are social networks where posts are short-lived:
- search with recency in mind and add the current month and %d to queries
- give weight only to verified or official accounts
- say in special_notes when a post could not be found or was removed
`, year)
	}

	fmt.Fprintf(&b, `
The current year is %d; prefer the most recent reports.

Respond with JSON only:
{
  "verification_status": "confirmed|partially_confirmed|contradictory|unconfirmed",
  "confidence_score": 0,
  "category": "news|entertainment|other|spam",
  "detailed_findings": "what the sources say",
  "contradictions": "where sources disagree with the message, empty if none",
  "missing_evidence": "what could not be found, empty if nothing",
  "special_notes": "anything else the reader should know"
}
confidence_score is an integer from 0 to 100 expressing confidence in your verdict.`, year)
	return b.String()
}

func quickSpamPrompt(text string) string {
	return "Is this message spam, advertising or junk? Answer with one word (yes/no): " + truncateRunes(text, 200)
}

func fallbackPrompt(text string) string {
	return fmt.Sprintf(`Briefly assess this message:
"%s"

Is it: 1) spam/junk 2) news 3) entertainment 4) other
Reply with one line: category | comment (if needed)`, truncateRunes(text, 1000))
}

func translatePrompt(text, language string) string {
	return fmt.Sprintf(`Translate the following fact-check text into %s. Keep technical terms precise and keep dates, numbers, names and proper nouns exactly as written. Return only the translation.

Text:
%s`, language, text)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
