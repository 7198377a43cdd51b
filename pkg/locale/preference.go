package locale

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// DefaultLanguage is appended to every preference list and used when the
// client did not send an Accept-Language header.
const DefaultLanguage = "en"

// ParsePreferences turns an Accept-Language header value into a list of
// lowercase language tags, most preferred first, always ending in
// DefaultLanguage.
//
// Entries are ordered by their weight expression as a string ("q=0.5"),
// not by its numeric value. Unweighted entries get the synthetic keys
// "q=1.00", "q=1.01", ... in header order, so they sort after every explicit
// weight. The ascending key order is then reversed:
//
//	ParsePreferences("en-US,es;q=0.1,en;q=0.5") // [en-us en es en]
//
// Entries are not trimmed, so whitespace after a comma stays part of the tag
// and whitespace after a semicolon stays part of the weight key.
// Two entries with the same weight expression keep only the later tag.
func ParsePreferences(header string) []string {
	byWeight := make(map[string]string)
	unweighted := 0

	for _, entry := range strings.Split(header, ",") {
		tag, weight, weighted := strings.Cut(entry, ";")
		if weighted {
			byWeight[strings.ToLower(weight)] = strings.ToLower(tag)
			continue
		}
		byWeight[fmt.Sprintf("q=1.%02d", unweighted)] = strings.ToLower(tag)
		unweighted++
	}

	keys := make([]string, 0, len(byWeight))
	for k := range byWeight {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	langs := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		langs = append(langs, byWeight[k])
	}
	slices.Reverse(langs)

	return append(langs, DefaultLanguage)
}

// Preferences resolves the preference list for an optional header value.
// A missing or blank header yields only DefaultLanguage.
func Preferences(header string, present bool) []string {
	if !present || strings.TrimSpace(header) == "" {
		return []string{DefaultLanguage}
	}
	return ParsePreferences(header)
}
