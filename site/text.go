package site

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func deriveTitle(slug, fallback string) string {
	name := strings.ReplaceAll(slug, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		if fallback == "" {
			return "Untitled"
		}
		return fallback
	}
	return cases.Title(language.Und, cases.NoLower).String(name)
}

func summarize(plain string) string {
	const limit = 160
	text := strings.Join(strings.Fields(plain), " ")
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit-1])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
