package discord

import (
	"fmt"
	"strings"

	"github.com/stake-plus/newsfilter/src/factcheck"
	"github.com/stake-plus/newsfilter/src/textutil"
)

const (
	messagePreviewRunes = 500
	debugSourcePreview  = 5
)

var categoryEmoji = map[factcheck.Category]string{
	factcheck.CategoryNews:          "📰",
	factcheck.CategoryEntertainment: "🎬",
	factcheck.CategoryOther:         "📄",
	factcheck.CategorySuppressed:    "🗑️",
}

// FormatResult renders an analyzed message for the target channel: a header with the
// origin and category, the verdict comment, the message itself and, when withDebug is
// set and the run produced diagnostics, a debug block.
func FormatResult(origin, text string, res factcheck.Result, withDebug bool) string {
	var b strings.Builder

	emoji, ok := categoryEmoji[res.Category]
	if !ok {
		emoji = categoryEmoji[factcheck.CategoryOther]
	}
	fmt.Fprintf(&b, "📢 **%s** | %s **%s**", origin, emoji, strings.ToUpper(string(res.Category)))

	if comment := strings.TrimSpace(res.Comment); comment != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(comment, "\n") {
			b.WriteString("\n> ")
			b.WriteString(line)
		}
	}

	if text = strings.TrimSpace(text); text != "" {
		b.WriteString("\n\n📝 **Message:**\n")
		b.WriteString(textutil.Preview(text, messagePreviewRunes))
	}

	if withDebug && res.Debug != nil {
		b.WriteString("\n\n")
		b.WriteString(formatDebug(res.Debug))
	}
	return WrapURLsNoEmbed(b.String())
}

func formatDebug(d *factcheck.DebugInfo) string {
	var b strings.Builder
	b.WriteString("🔧 **Debug**\n")
	fmt.Fprintf(&b, "⏱️ Stage 1: %.2fs | Stage 2: %.2fs", d.Stage1Seconds, d.Stage2Seconds)
	if d.TranslateSeconds > 0 {
		fmt.Fprintf(&b, " | Translate: %.2fs", d.TranslateSeconds)
	}
	fmt.Fprintf(&b, " | Total: %.2fs\n", d.TotalSeconds)
	fmt.Fprintf(&b, "🔁 Attempts: %d", d.Attempts)
	if d.Model != "" {
		fmt.Fprintf(&b, " (%s)", d.Model)
	}
	b.WriteString("\n")
	if d.VerificationStatus != "" {
		fmt.Fprintf(&b, "📊 %s %d%%\n", d.VerificationStatus, d.ConfidenceScore)
	}
	fmt.Fprintf(&b, "🌐 Sources: %d", d.SourcesCount)
	if preview := sourcePreview(d.Sources, debugSourcePreview); preview != "" {
		b.WriteString(" | ")
		b.WriteString(preview)
	}
	if d.Reasoning != "" {
		fmt.Fprintf(&b, "\n💭 Reasoning: %s", d.Reasoning)
	}
	if flags := debugFlags(d); len(flags) > 0 {
		fmt.Fprintf(&b, "\n🚩 Flags: %s", strings.Join(flags, ", "))
	}
	return b.String()
}

// sourcePreview lists the first limit domains and counts the rest.
func sourcePreview(domains []string, limit int) string {
	if len(domains) <= limit {
		return strings.Join(domains, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(domains[:limit], ", "), len(domains)-limit)
}

func debugFlags(d *factcheck.DebugInfo) []string {
	var flags []string
	if d.WebSearchUsed {
		flags = append(flags, "web search")
	}
	if d.FallbackUsed {
		flags = append(flags, "fallback")
	}
	if d.ModelDowngraded {
		flags = append(flags, "model downgraded")
	}
	return flags
}
