package data

import "strings"

// KeywordsFilter suppresses notifications for notes whose search text
// contains any of the configured keywords. Keywords are matched
// case-insensitively against the normalized search text.
type KeywordsFilter struct {
	keywords []string
}

// NewKeywordsFilter parses a comma-separated keyword list.
func NewKeywordsFilter(raw string) *KeywordsFilter {
	f := &KeywordsFilter{}
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			f.keywords = append(f.keywords, kw)
		}
	}
	return f
}

func (f *KeywordsFilter) IsEmpty() bool {
	return f == nil || len(f.keywords) == 0
}

// Matches reports whether the search text contains any keyword.
func (f *KeywordsFilter) Matches(searchText string) bool {
	if f.IsEmpty() || searchText == "" {
		return false
	}
	for _, kw := range f.keywords {
		if strings.Contains(searchText, kw) {
			return true
		}
	}
	return false
}
