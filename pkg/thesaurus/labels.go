package thesaurus

import "strings"

// PreferredLabel picks the label to display. In order of preference: a
// prefLabel in lang, a prefLabel in systemLang, any prefLabel, an altLabel in
// lang, then the first label. ok is false when labels is empty.
func PreferredLabel(labels []Label, lang, systemLang string) (Label, bool) {
	if len(labels) == 0 {
		return Label{}, false
	}

	ranks := []func(Label) bool{
		func(l Label) bool { return l.ValueType == PrefLabel && sameLanguage(l.LanguageID, lang) },
		func(l Label) bool { return l.ValueType == PrefLabel && sameLanguage(l.LanguageID, systemLang) },
		func(l Label) bool { return l.ValueType == PrefLabel },
		func(l Label) bool { return l.ValueType == AltLabel && sameLanguage(l.LanguageID, lang) },
	}
	for _, match := range ranks {
		for _, l := range labels {
			if match(l) {
				return l, true
			}
		}
	}
	return labels[0], true
}

// sameLanguage compares primary language subtags: "en-US" matches "en".
// An empty want never matches.
func sameLanguage(got, want string) bool {
	if want == "" {
		return false
	}
	return primarySubtag(got) == primarySubtag(want)
}

func primarySubtag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
