// Package search keeps a fuzzy full-text index of menu items in
// Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

var ErrDisabled = errors.New("search disabled")

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "long"},
      "name":          {"type": "text"},
      "description":   {"type": "text"},
      "category_id":   {"type": "long"},
      "is_available":  {"type": "boolean"},
      "is_vegetarian": {"type": "boolean"},
      "is_spicy":      {"type": "boolean"},
      "is_popular":    {"type": "boolean"},
      "allergens":     {"type": "keyword"}
    }
  }
}`

type MenuIndex struct {
	ES    *elasticsearch.Client
	Index string
}

// EnsureIndex creates the index with its mapping when it is missing.
func (m *MenuIndex) EnsureIndex(ctx context.Context) error {
	res, err := m.ES.Indices.Exists([]string{m.Index}, m.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = m.ES.Indices.Create(m.Index,
		m.ES.Indices.Create.WithContext(ctx),
		m.ES.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return fmt.Errorf("create index %s: %s", res.Status(), body)
	}
	return nil
}

func (m *MenuIndex) IndexItem(ctx context.Context, item models.MenuItem) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(item); err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	res, err := m.ES.Index(m.Index, &buf,
		m.ES.Index.WithContext(ctx),
		m.ES.Index.WithDocumentID(strconv.FormatUint(uint64(item.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index item %d: %w", item.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index item %d: %s", item.ID, res.Status())
	}
	return nil
}

func (m *MenuIndex) DeleteItem(ctx context.Context, id uint) error {
	res, err := m.ES.Delete(m.Index, strconv.FormatUint(uint64(id), 10), m.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete item %d: %s", id, res.Status())
	}
	return nil
}

// Reindex pushes every item; used at startup so the index follows the
// database after downtime.
func (m *MenuIndex) Reindex(ctx context.Context, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, it := range items {
		meta := map[string]any{"index": map[string]any{"_index": m.Index, "_id": strconv.FormatUint(uint64(it.ID), 10)}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	res, err := m.ES.Bulk(&buf, m.ES.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.Status())
	}

	var r struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return fmt.Errorf("bulk index decode: %w", err)
	}
	if r.Errors {
		return errors.New("bulk index: some items failed")
	}
	return nil
}

// Search runs a fuzzy match over name and description. availableOnly hides
// items that cannot be ordered.
func (m *MenuIndex) Search(ctx context.Context, query string, availableOnly bool, from, size int) (int64, []models.MenuItem, error) {
	must := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	boolQ := map[string]any{"must": must}
	if availableOnly {
		boolQ["filter"] = []any{map[string]any{"term": map[string]any{"is_available": true}}}
	}
	body := map[string]any{
		"query": map[string]any{"bool": boolQ},
		"from":  from,
		"size":  size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search encode: %w", err)
	}

	res, err := m.ES.Search(
		m.ES.Search.WithContext(ctx),
		m.ES.Search.WithIndex(m.Index),
		m.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.MenuItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search decode: %w", err)
	}

	items := make([]models.MenuItem, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		items[i] = hit.Source
	}
	return r.Hits.Total.Value, items, nil
}
