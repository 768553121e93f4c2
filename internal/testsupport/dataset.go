package testsupport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// Model is one object served by a fake dataset.
type Model struct {
	UID   string
	Shard string
	Tags  []any
	Size  int64
	// Missing serves the annotation and index entry but 404s the payload.
	Missing bool
}

// Dataset is an httptest server laid out like the Objaverse mirror.
type Dataset struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// NewDataset serves models in the given order and closes the server on cleanup.
func NewDataset(t testing.TB, models ...Model) *Dataset {
	t.Helper()

	files := map[string][]byte{}
	paths := orderedJSON{}
	shards := map[string]*orderedJSON{}
	var shardOrder []string
	for _, m := range models {
		shard := m.Shard
		if shard == "" {
			shard = "000-000"
		}
		rel := "glbs/" + shard + "/" + m.UID + ".glb"
		paths.add(m.UID, rel)
		if _, ok := shards[shard]; !ok {
			shards[shard] = &orderedJSON{}
			shardOrder = append(shardOrder, shard)
		}
		shards[shard].add(m.UID, map[string]any{"name": m.UID, "tags": m.Tags})
		if !m.Missing {
			files["/"+rel] = Payload(m.Size)
		}
	}
	files["/object-paths.json.gz"] = gzipJSON(t, paths)
	for _, shard := range shardOrder {
		files["/metadata/"+shard+".json.gz"] = gzipJSON(t, *shards[shard])
	}

	d := &Dataset{hits: map[string]int{}}
	d.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.hits[r.URL.Path]++
		d.mu.Unlock()
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(d.Close)
	return d
}

// Hits reports how many requests reached path.
func (d *Dataset) Hits(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hits[path]
}

type orderedJSON struct {
	keys   []string
	values []any
}

func (o *orderedJSON) add(key string, value any) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o orderedJSON) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func gzipJSON(t testing.TB, value any) []byte {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal dataset json: %v", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("gzip dataset json: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip dataset json: %v", err)
	}
	return buf.Bytes()
}
