package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
)

// documentRecord is one chunk of a source document in the interchange files.
type documentRecord struct {
	Document string `json:"document"`
	Text     string `json:"text"`
}

// faqRecord is one curated question/answer pair.
type faqRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type mentionRecord struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

type tripleRecord struct {
	Subject     string  `json:"subject"`
	SubjectType string  `json:"subject_type,omitempty"`
	Predicate   string  `json:"predicate"`
	Object      string  `json:"object"`
	ObjectType  string  `json:"object_type,omitempty"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source,omitempty"`
}

// extractionFile is the output of the extract command and the input the
// build command reads back through --extracted.
type extractionFile struct {
	Mentions []mentionRecord `json:"mentions"`
	Triples  []tripleRecord  `json:"triples"`
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func loadDocuments(path string) ([]documentRecord, error) {
	var docs []documentRecord
	if err := readJSONFile(path, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// loadBuildInput assembles the pipeline input from up to three interchange
// files. Empty paths are skipped.
func loadBuildInput(extractedPath, docsPath, faqsPath string) (ingestion.Input, error) {
	var input ingestion.Input

	if extractedPath != "" {
		var extraction extractionFile
		if err := readJSONFile(extractedPath, &extraction); err != nil {
			return input, fmt.Errorf("failed to load extraction: %w", err)
		}
		for _, mention := range extraction.Mentions {
			input.Mentions = append(input.Mentions, core.RawMention{
				Name:   mention.Name,
				Type:   mention.Type,
				Source: mention.Source,
			})
		}
		for _, triple := range extraction.Triples {
			input.Triples = append(input.Triples, core.RawTriple{
				Subject:     triple.Subject,
				SubjectType: triple.SubjectType,
				Predicate:   triple.Predicate,
				Object:      triple.Object,
				ObjectType:  triple.ObjectType,
				Confidence:  triple.Confidence,
				Source:      triple.Source,
			})
		}
	}

	if docsPath != "" {
		docs, err := loadDocuments(docsPath)
		if err != nil {
			return input, fmt.Errorf("failed to load documents: %w", err)
		}
		for _, doc := range docs {
			input.Chunks = append(input.Chunks, &core.DocumentChunk{
				Document: doc.Document,
				Text:     doc.Text,
			})
		}
	}

	if faqsPath != "" {
		var faqs []faqRecord
		if err := readJSONFile(faqsPath, &faqs); err != nil {
			return input, fmt.Errorf("failed to load faqs: %w", err)
		}
		for _, faq := range faqs {
			input.FAQs = append(input.FAQs, &core.FAQEntry{
				Question: faq.Question,
				Answer:   faq.Answer,
			})
		}
	}

	return input, nil
}

// appendExtraction folds one chunk's extractor output into the file,
// deriving a mention for each triple endpoint. seenMentions dedupes
// mentions across chunks by name and type.
func appendExtraction(dst *extractionFile, source string, triples []ai.ExtractedTriple, seenMentions map[string]struct{}) {
	addMention := func(name, entityType string) {
		key := name + "\x00" + entityType
		if _, dup := seenMentions[key]; dup {
			return
		}
		seenMentions[key] = struct{}{}
		dst.Mentions = append(dst.Mentions, mentionRecord{
			Name:   name,
			Type:   entityType,
			Source: source,
		})
	}

	for _, triple := range triples {
		addMention(triple.Subject, triple.SubjectType)
		addMention(triple.Object, triple.ObjectType)
		dst.Triples = append(dst.Triples, tripleRecord{
			Subject:     triple.Subject,
			SubjectType: triple.SubjectType,
			Predicate:   triple.Predicate,
			Object:      triple.Object,
			ObjectType:  triple.ObjectType,
			Confidence:  triple.Confidence,
			Source:      source,
		})
	}
}

// writeExtraction writes the extraction as indented JSON to path, or to
// stdout when path is empty.
func writeExtraction(path string, extraction *extractionFile) error {
	data, err := json.MarshalIndent(extraction, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode extraction: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
