package curate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"garden/internal/objaverse"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		tag  objaverse.Tag
		want string
	}{
		{tag: objaverse.PlainTag("Nature"), want: "nature"},
		{tag: objaverse.NamedTag{Name: "GEOMETRIC"}, want: "geometric"},
		{tag: objaverse.PlainTag("  Plant "), want: "plant"},
		{tag: objaverse.PlainTag("ÉTÉ"), want: "été"},
		{tag: nil, want: ""},
	}
	for _, tc := range tests {
		if got := NormalizeTag(tc.tag); got != tc.want {
			t.Fatalf("NormalizeTag(%v) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestFilterByTagsKeepsCorpusOrder(t *testing.T) {
	annotations := objaverse.NewAnnotations(
		objaverse.Annotation{UID: "e", Tags: objaverse.Tags{objaverse.PlainTag("Flower")}},
		objaverse.Annotation{UID: "x", Tags: objaverse.Tags{objaverse.PlainTag("car")}},
		objaverse.Annotation{UID: "a", Tags: objaverse.Tags{objaverse.NamedTag{Name: "Organic"}, objaverse.PlainTag("nature")}},
		objaverse.Annotation{UID: "none"},
		objaverse.Annotation{UID: "b", Tags: objaverse.Tags{objaverse.NamedTag{Name: ""}, objaverse.PlainTag("ABSTRACT")}},
	)

	got := FilterByTags(annotations, []string{"nature", "abstract", "organic", "Flower"})
	if diff := cmp.Diff([]string{"e", "a", "b"}, got); diff != "" {
		t.Fatalf("filtered (-want +got):\n%s", diff)
	}
}

func TestFilterByTagsNoMatch(t *testing.T) {
	annotations := objaverse.NewAnnotations(
		objaverse.Annotation{UID: "x", Tags: objaverse.Tags{objaverse.PlainTag("car")}},
	)
	if got := FilterByTags(annotations, DefaultTargetTags()); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestFilterByTagsMatchesNormalizedForms(t *testing.T) {
	annotations := objaverse.NewAnnotations(
		objaverse.Annotation{UID: "summer", Tags: objaverse.Tags{objaverse.PlainTag("ÉTÉ")}},
		objaverse.Annotation{UID: "fern", Tags: objaverse.Tags{objaverse.NamedTag{Name: "  Plant  "}}},
	)
	got := FilterByTags(annotations, []string{" été ", "PLANT"})
	if diff := cmp.Diff([]string{"summer", "fern"}, got); diff != "" {
		t.Fatalf("filtered (-want +got):\n%s", diff)
	}
	for uid, ann := range annotations.All() {
		if NormalizeTag(ann.Tags[0]) != NormalizeLabel(map[string]string{"summer": "été", "fern": "plant"}[uid]) {
			t.Fatalf("tag and label normalisation disagree for %s", uid)
		}
	}
}
