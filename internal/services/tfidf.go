package services

import (
	"math"
	"sort"
	"strings"
)

// TFIDFScorer scores terms across a corpus of chunk texts. Used during
// ingestion to rank candidate keywords by how specific they are to a chunk
// relative to the rest of the document.
type TFIDFScorer struct {
	documents  []string
	vocabulary map[string]int
	idf        map[string]float64
}

// NewTFIDFScorer builds a scorer over the given corpus
func NewTFIDFScorer(documents []string) *TFIDFScorer {
	scorer := &TFIDFScorer{
		documents:  documents,
		vocabulary: make(map[string]int),
		idf:        make(map[string]float64),
	}
	scorer.buildVocabulary()
	scorer.calculateIDF()
	return scorer
}

func (s *TFIDFScorer) buildVocabulary() {
	for _, doc := range s.documents {
		for _, word := range strings.Fields(strings.ToLower(doc)) {
			s.vocabulary[word]++
		}
	}
}

func (s *TFIDFScorer) calculateIDF() {
	totalDocs := float64(len(s.documents))

	for word := range s.vocabulary {
		docCount := 0.0
		for _, doc := range s.documents {
			if strings.Contains(strings.ToLower(doc), word) {
				docCount++
			}
		}
		s.idf[word] = math.Log(totalDocs / docCount)
	}
}

// Score returns up to limit terms of the document ranked by TF-IDF
func (s *TFIDFScorer) Score(document string, limit int) []KeywordResult {
	words := strings.Fields(strings.ToLower(document))
	if len(words) == 0 {
		return nil
	}

	wordCount := make(map[string]int)
	for _, word := range words {
		wordCount[word]++
	}

	var results []KeywordResult
	for word, freq := range wordCount {
		idf, exists := s.idf[word]
		if !exists {
			continue
		}

		tf := float64(freq) / float64(len(words))
		results = append(results, KeywordResult{
			Word:      word,
			Frequency: freq,
			Score:     tf * idf,
			PosTag:    "TFIDF",
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Word < results[j].Word
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results
}
