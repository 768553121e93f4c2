package curate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"garden/internal/objaverse"
)

// NormalizeLabel lower-cases a tag label using Unicode rules.
func NormalizeLabel(label string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(label))
}

// NormalizeTag returns the comparable form of a plain or named tag.
func NormalizeTag(tag objaverse.Tag) string {
	if tag == nil {
		return ""
	}
	return NormalizeLabel(tag.Label())
}

// FilterByTags returns, in corpus order, every uid whose normalised tag set
// shares at least one element with the normalised targets.
func FilterByTags(annotations objaverse.Annotations, targets []string) []string {
	wanted := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		wanted[NormalizeLabel(target)] = struct{}{}
	}

	var matched []string
	for uid, ann := range annotations.All() {
		for _, tag := range ann.Tags {
			if tag == nil {
				continue
			}
			if _, ok := wanted[NormalizeTag(tag)]; ok {
				matched = append(matched, uid)
				break
			}
		}
	}
	return matched
}
