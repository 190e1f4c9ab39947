package fileserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// IndexPath is the asset index at the root of the file service.
const IndexPath = "index.json"

// Entry describes one published model in the index.
type Entry struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Formats    []string          `json:"formats"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	UploadedAt time.Time         `json:"uploaded_at"`
}

// Index is the asset index document.
type Index struct {
	Models []Entry `json:"models"`
}

// Lookup returns the entry for key.
func (ix *Index) Lookup(key string) (Entry, bool) {
	for _, e := range ix.Models {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Upsert adds or replaces the entry with e.Key, keeping entries sorted by key.
func (ix *Index) Upsert(e Entry) {
	for i := range ix.Models {
		if ix.Models[i].Key == e.Key {
			ix.Models[i] = e
			return
		}
	}
	ix.Models = append(ix.Models, e)
	sort.Slice(ix.Models, func(i, j int) bool { return ix.Models[i].Key < ix.Models[j].Key })
}

// Index downloads the asset index. A missing index is an empty one.
func (c *Client) Index(ctx context.Context) (*Index, error) {
	raw, err := c.Get(ctx, IndexPath)
	if IsNotFound(err) {
		return &Index{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ix Index
	if err := json.Unmarshal(raw, &ix); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", IndexPath, err)
	}
	return &ix, nil
}

// UpdateIndex records e in the asset index. A zero UploadedAt is set to now.
// The read-modify-write is not atomic; concurrent publishers may lose entries.
func (c *Client) UpdateIndex(ctx context.Context, e Entry) error {
	if e.UploadedAt.IsZero() {
		e.UploadedAt = c.now().UTC()
	}
	ix, err := c.Index(ctx)
	if err != nil {
		return err
	}
	ix.Upsert(e)
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	err = c.Put(ctx, IndexPath, data, "application/json")
	if IsNotFound(err) {
		// Some services only create files on POST.
		err = c.Post(ctx, IndexPath, nil, data, "application/json")
	}
	return err
}
