// Package i18n renders user-facing messages in Norwegian, English or
// Turkish.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.Norwegian,
	language.English,
	language.Turkish,
}

type Translator struct {
	fallback language.Tag
	ordered  []language.Tag
	matcher  language.Matcher
	tables   map[language.Tag]map[string]string
}

// New builds a translator; def is used when nothing in a request matches.
func New(def string) *Translator {
	fb := language.Norwegian
	if tag, err := language.Parse(def); err == nil {
		for _, s := range supported {
			if base(tag) == base(s) {
				fb = s
			}
		}
	}

	// the fallback must be first for the matcher to prefer it
	ordered := []language.Tag{fb}
	for _, s := range supported {
		if s != fb {
			ordered = append(ordered, s)
		}
	}
	return &Translator{
		fallback: fb,
		ordered:  ordered,
		matcher:  language.NewMatcher(ordered),
		tables: map[language.Tag]map[string]string{
			language.Norwegian: norwegian,
			language.English:   english,
			language.Turkish:   turkish,
		},
	}
}

func base(t language.Tag) language.Base {
	b, _ := t.Base()
	return b
}

// Match picks the best supported language for an Accept-Language header
// or a bare code like "tr". Bokmål and nynorsk map to Norwegian.
func (t *Translator) Match(accept string) language.Tag {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return t.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	for i, tag := range tags {
		switch base(tag).String() {
		case "nb", "nn":
			tags[i] = language.Norwegian
		}
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.fallback
	}
	if idx < 0 || idx >= len(t.ordered) {
		return t.fallback
	}
	return t.ordered[idx]
}

// T looks key up in lang, then in the fallback language, then returns key.
// args are name/value pairs substituted for {name}.
func (t *Translator) T(lang language.Tag, key string, args ...string) string {
	msg, ok := t.tables[lang][key]
	if !ok {
		msg, ok = t.tables[t.fallback][key]
	}
	if !ok {
		msg = key
	}
	for i := 0; i+1 < len(args); i += 2 {
		msg = strings.ReplaceAll(msg, "{"+args[i]+"}", args[i+1])
	}
	return msg
}

func (t *Translator) Default() language.Tag { return t.fallback }
