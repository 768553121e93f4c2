package objaverse

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
)

// Annotation is the metadata the curator needs for one object.
type Annotation struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	Tags Tags   `json:"tags"`
}

// Annotations is an insertion-ordered uid → annotation collection.
type Annotations struct {
	order []string
	byUID map[string]Annotation
}

// NewAnnotations builds a collection from annotations in the given order.
func NewAnnotations(items ...Annotation) Annotations {
	var a Annotations
	for _, item := range items {
		a.Put(item)
	}
	return a
}

// Put stores ann. A uid already present keeps its position and takes the new value.
func (a *Annotations) Put(ann Annotation) {
	if a.byUID == nil {
		a.byUID = make(map[string]Annotation)
	}
	if _, ok := a.byUID[ann.UID]; !ok {
		a.order = append(a.order, ann.UID)
	}
	a.byUID[ann.UID] = ann
}

// Len reports how many annotations are stored.
func (a Annotations) Len() int { return len(a.order) }

// Get returns the annotation for uid.
func (a Annotations) Get(uid string) (Annotation, bool) {
	ann, ok := a.byUID[uid]
	return ann, ok
}

// UIDs returns the identifiers in corpus order.
func (a Annotations) UIDs() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// All iterates annotations in corpus order.
func (a Annotations) All() iter.Seq2[string, Annotation] {
	return func(yield func(string, Annotation) bool) {
		for _, uid := range a.order {
			if !yield(uid, a.byUID[uid]) {
				return
			}
		}
	}
}

// decodeOrderedObject walks a JSON object token by token and calls fn for each
// member in document order. The value is handed over undecoded.
func decodeOrderedObject(r io.Reader, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode value for %q: %w", key, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read closing token: %w", err)
	}
	return nil
}

// decodeAnnotationShard appends every annotation in a metadata shard to dst.
// The object key is authoritative for the uid. Fields are decoded one by one
// so a malformed name never costs the record its tags; values that are not
// objects decode to an annotation without tags.
func decodeAnnotationShard(r io.Reader, dst *Annotations) error {
	return decodeOrderedObject(r, func(uid string, value json.RawMessage) error {
		ann := Annotation{UID: uid}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(value, &fields); err == nil {
			if raw, ok := fields["name"]; ok {
				_ = json.Unmarshal(raw, &ann.Name)
			}
			if raw, ok := fields["tags"]; ok {
				_ = json.Unmarshal(raw, &ann.Tags)
			}
		}
		dst.Put(ann)
		return nil
	})
}
