package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for perfume documents.
//
// Names, brands and tags are proper nouns, so they skip stemming. Note text is
// prose and gets the English analyzer. The *_key fields hold case-folded
// values for sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = standard.Name
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldName, nameFieldMapping)

	brandFieldMapping := bleve.NewTextFieldMapping()
	brandFieldMapping.Analyzer = standard.Name
	brandFieldMapping.Store = true
	brandFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldBrand, brandFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = standard.Name
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldTags, tagsFieldMapping)

	// Notes can be long; searchable but not stored.
	notesFieldMapping := bleve.NewTextFieldMapping()
	notesFieldMapping.Analyzer = en.AnalyzerName
	notesFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldNotes, notesFieldMapping)

	for _, key := range []string{fieldNameKey, fieldBrandKey} {
		keyFieldMapping := bleve.NewTextFieldMapping()
		keyFieldMapping.Analyzer = keyword.Name
		keyFieldMapping.Store = false
		docMapping.AddFieldMappingsAt(key, keyFieldMapping)
	}

	updatedFieldMapping := bleve.NewNumericFieldMapping()
	updatedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldUpdated, updatedFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
