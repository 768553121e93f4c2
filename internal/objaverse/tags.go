package objaverse

import (
	"bytes"
	"encoding/json"
)

// Tag is a single annotation tag. The dataset stores tags either as bare
// strings or as records carrying a name.
type Tag interface {
	// Label returns the raw tag text before normalisation.
	Label() string
	isTag()
}

// PlainTag is a tag stored as a bare string.
type PlainTag string

// Label implements Tag.
func (t PlainTag) Label() string { return string(t) }

func (PlainTag) isTag() {}

// NamedTag is a tag stored as a record. Only the name takes part in filtering.
type NamedTag struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Label implements Tag.
func (t NamedTag) Label() string { return t.Name }

func (NamedTag) isTag() {}

// Tags decodes a tag list leniently. Elements that are neither strings nor
// objects are dropped, and a value that is not an array yields no tags.
type Tags []Tag

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(data []byte) error {
	*t = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	tags := make(Tags, 0, len(raw))
	for _, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 {
			continue
		}
		switch elem[0] {
		case '"':
			var s string
			if err := json.Unmarshal(elem, &s); err == nil {
				tags = append(tags, PlainTag(s))
			}
		case '{':
			var named NamedTag
			if err := json.Unmarshal(elem, &named); err == nil {
				tags = append(tags, named)
			} else {
				// A record whose name is not a string still counts as a tag
				// with an empty name.
				tags = append(tags, NamedTag{})
			}
		}
	}
	*t = tags
	return nil
}

// Labels returns the raw label of every tag.
func (t Tags) Labels() []string {
	out := make([]string, 0, len(t))
	for _, tag := range t {
		out = append(out, tag.Label())
	}
	return out
}
