package factcheck

import (
	"strings"

	"github.com/tidwall/gjson"
)

// maxEnvelopeDepth bounds recursion into nested content containers.
const maxEnvelopeDepth = 8

// ExtractText returns the readable text of a response envelope. The flattened
// output_text field wins; otherwise message content blocks and tool results found in
// the output list are concatenated in order.
func ExtractText(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	root := gjson.ParseBytes(raw)
	if text := strings.TrimSpace(root.Get("output_text").String()); text != "" {
		return text
	}

	var parts []string
	collectText(root.Get("output"), &parts, 0)
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func collectText(node gjson.Result, parts *[]string, depth int) {
	if depth > maxEnvelopeDepth || !node.Exists() {
		return
	}
	switch {
	case node.IsArray():
		node.ForEach(func(_, item gjson.Result) bool {
			collectText(item, parts, depth+1)
			return true
		})
	case node.IsObject():
		if text := node.Get("text"); text.Type == gjson.String {
			appendText(parts, text.String())
		} else if node.Get("title").Exists() || node.Get("snippet").Exists() {
			appendText(parts, searchResultLine(node))
		}
		for _, key := range []string{"content", "output", "results"} {
			child := node.Get(key)
			if child.Type == gjson.String {
				appendText(parts, child.String())
				continue
			}
			collectText(child, parts, depth+1)
		}
	case node.Type == gjson.String:
		appendText(parts, node.String())
	}
}

// searchResultLine joins the title, snippet and url of a search result with em dashes.
func searchResultLine(r gjson.Result) string {
	fields := make([]string, 0, 3)
	for _, key := range []string{"title", "snippet", "url"} {
		if v := strings.TrimSpace(r.Get(key).String()); v != "" {
			fields = append(fields, v)
		}
	}
	return strings.Join(fields, " — ")
}

func appendText(parts *[]string, s string) {
	if s = strings.TrimSpace(s); s != "" {
		*parts = append(*parts, s)
	}
}
