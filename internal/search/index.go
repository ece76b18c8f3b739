// Package search maintains a full-text index over the current content of
// every tracked regulation.
package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/regwatch/regwatch/internal/store"
)

// Index wraps a Bleve search index
type Index struct {
	index bleve.Index
}

// IndexedRegulation represents a regulation in the search index
type IndexedRegulation struct {
	ID      string
	Title   string
	Content string
	URL     string
}

// Result represents a search result
type Result struct {
	ID        string
	Title     string
	URL       string
	Score     float64
	Fragments map[string][]string // Highlighted snippets
}

// Open opens or creates a Bleve index
func Open(path string) (*Index, error) {
	var idx bleve.Index
	var err error

	// Try to open existing index
	idx, err = bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{index: idx}, nil
}

// buildIndexMapping creates the index mapping; titles get the English
// analyzer for better stemming.
func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("ID", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Content", textFieldMapping)
	docMapping.AddFieldMappingsAt("URL", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Close closes the index
func (i *Index) Close() error {
	return i.index.Close()
}

// IndexRegulation adds or updates a regulation in the index
func (i *Index) IndexRegulation(reg *IndexedRegulation) error {
	return i.index.Index(reg.ID, reg)
}

// Delete removes a regulation from the index
func (i *Index) Delete(id string) error {
	return i.index.Delete(id)
}

// Search performs a query-string search (supports quotes, boolean operators,
// fuzzy ~) with highlighted fragments.
func (i *Index) Search(queryStr string, limit int) ([]*Result, error) {
	query := bleve.NewQueryStringQuery(queryStr)

	search := bleve.NewSearchRequestOptions(query, limit, 0, false)
	search.Highlight = bleve.NewHighlightWithStyle("html")
	search.Fields = []string{"Title", "URL"}

	results, err := i.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var out []*Result
	for _, hit := range results.Hits {
		result := &Result{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}

		if title, ok := hit.Fields["Title"].(string); ok {
			result.Title = title
		}
		if url, ok := hit.Fields["URL"].(string); ok {
			result.URL = url
		}

		out = append(out, result)
	}

	return out, nil
}

// Rebuild reindexes every regulation's current content from the store.
func (i *Index) Rebuild(ctx context.Context, db *store.DB) error {
	contents, err := db.ListCurrentContents(ctx)
	if err != nil {
		return fmt.Errorf("list current contents: %w", err)
	}

	batch := i.index.NewBatch()
	for _, rc := range contents {
		reg := &IndexedRegulation{
			ID:      rc.ID,
			Title:   rc.Title,
			Content: rc.Content,
			URL:     rc.URL,
		}
		if err := batch.Index(reg.ID, reg); err != nil {
			return fmt.Errorf("batch index %s: %w", rc.ID, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// Count returns the number of regulations in the index
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
