package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "bare host", raw: "reuters.com", want: "reuters.com", wantOK: true},
		{name: "full url", raw: "https://www.Reuters.com/markets/currencies/", want: "reuters.com", wantOK: true},
		{name: "http scheme with port", raw: "http://cbr.ru:8080/press", want: "cbr.ru", wantOK: true},
		{name: "subdomain kept", raw: "blog.discord.com", want: "blog.discord.com", wantOK: true},
		{name: "repeated www stripped", raw: "www.www.example.org", want: "example.org", wantOK: true},
		{name: "leading space", raw: " bbc.com", wantOK: false},
		{name: "trailing newline", raw: "bbc.com\n", wantOK: false},
		{name: "surrounding spaces", raw: "  rbc.ru  ", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
		{name: "blank", raw: "   ", wantOK: false},
		{name: "inner whitespace", raw: "reuters com", wantOK: false},
		{name: "tab inside", raw: "bbc.\tcom", wantOK: false},
		{name: "scheme without host", raw: "https://", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	for _, raw := range []string{"https://www.bloomberg.com/news", "WSJ.com", "t.me/durov", "www.www.example.org"} {
		first, ok := Resolve(raw)
		assert.True(t, ok)
		second, ok := Resolve(first)
		assert.True(t, ok)
		assert.Equal(t, first, second)
	}
}
