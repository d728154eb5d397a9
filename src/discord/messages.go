package discord

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxDiscordMessageLen = 2000
	SafeChunkLen         = 1900
)

// BuildLongMessages splits a rendered result across as many messages as Discord needs.
// Every chunk but the last is marked as continued.
func BuildLongMessages(message string) []string {
	if len(message) <= MaxDiscordMessageLen {
		return []string{message}
	}
	chunks := splitMessage(message)
	for i := 0; i < len(chunks)-1; i++ {
		chunks[i] += "\n*(continued...)*"
	}
	return chunks
}

// splitMessage packs paragraphs into chunks of at most SafeChunkLen bytes, falling
// back to sentences and then words for paragraphs that do not fit on their own.
func splitMessage(message string) []string {
	var (
		out     []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}
	add := func(piece, sep string) {
		if current.Len() > 0 && current.Len()+len(sep)+len(piece) > SafeChunkLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	for _, paragraph := range strings.Split(message, "\n\n") {
		if len(paragraph) <= SafeChunkLen {
			add(paragraph, "\n\n")
			continue
		}
		flush()
		for _, sentence := range splitBySentences(paragraph) {
			add(sentence, " ")
		}
	}
	flush()
	return out
}

func splitBySentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	var out []string
	for _, s := range sentences {
		if len(s) <= SafeChunkLen {
			out = append(out, s)
			continue
		}
		out = append(out, splitByWords(s)...)
	}
	return out
}

func splitByWords(text string) []string {
	var (
		chunks []string
		chunk  strings.Builder
	)
	for _, word := range strings.Fields(text) {
		for len(word) > SafeChunkLen {
			if chunk.Len() > 0 {
				chunks = append(chunks, chunk.String())
				chunk.Reset()
			}
			cut := SafeChunkLen
			for cut > 0 && !isRuneStart(word[cut]) {
				cut--
			}
			chunks = append(chunks, word[:cut])
			word = word[cut:]
		}
		if chunk.Len() > 0 && chunk.Len()+len(word)+1 > SafeChunkLen {
			chunks = append(chunks, chunk.String())
			chunk.Reset()
		}
		if chunk.Len() > 0 {
			chunk.WriteString(" ")
		}
		chunk.WriteString(word)
	}
	if chunk.Len() > 0 {
		chunks = append(chunks, chunk.String())
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

var urlPattern = regexp.MustCompile(`https?://[^\s\[\]()<>]+`)

// WrapURLsNoEmbed wraps URLs in angle brackets so Discord does not unfurl them.
// URLs that are already wrapped are left alone.
func WrapURLsNoEmbed(text string) string {
	var (
		b    strings.Builder
		last int
	)
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		b.WriteString(text[last:start])
		last = end
		u := text[start:end]
		if start > 0 && text[start-1] == '<' {
			b.WriteString(u)
			continue
		}
		trimmed := strings.TrimRight(u, ".,;:!?")
		fmt.Fprintf(&b, "<%s>%s", trimmed, u[len(trimmed):])
	}
	b.WriteString(text[last:])
	return b.String()
}
