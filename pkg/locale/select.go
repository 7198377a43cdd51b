package locale

import "strings"

// Select returns the localized name matching the earliest possible entry of
// prefs. A dialect tag such as "en-us" falls back to its two letter base
// ("en") before the next preference is considered.
func Select(prefs []string, names map[string]string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	for _, lang := range prefs {
		if name, ok := names[lang]; ok {
			return name, true
		}
		if strings.Contains(lang, "-") {
			if name, ok := names[baseLanguage(lang)]; ok {
				return name, true
			}
		}
	}
	return "", false
}

func baseLanguage(tag string) string {
	if len(tag) < 2 {
		return tag
	}
	return tag[:2]
}
