package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// KeywordExtractor pulls representative keywords out of chunk text. The
// keywords are attached to chunk metadata before storage so retrieval results
// can be inspected and filtered without re-reading the chunk.
type KeywordExtractor struct {
	stopWords map[string]bool
	minLength int
}

// NewKeywordExtractor creates a new keyword extractor
func NewKeywordExtractor() *KeywordExtractor {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
		"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
		"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
		"this": true, "that": true, "these": true, "those": true, "i": true, "you": true,
		"he": true, "she": true, "it": true, "we": true, "they": true, "my": true,
		"your": true, "his": true, "her": true, "its": true, "our": true, "their": true,
	}

	return &KeywordExtractor{
		stopWords: stopWords,
		minLength: 2,
	}
}

// KeywordResult represents a keyword with its frequency and importance
type KeywordResult struct {
	Word      string  `json:"word"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
	PosTag    string  `json:"pos_tag"`
}

// ExtractKeywords extracts up to limit keywords from text, scored by
// part-of-speech and frequency.
func (ke *KeywordExtractor) ExtractKeywords(text string, limit int) ([]KeywordResult, error) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, err
	}

	wordFreq := make(map[string]*KeywordResult)

	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)

		if ke.shouldSkipWord(word, tok.Tag) {
			continue
		}

		score := ke.calculateScore(tok.Tag)

		if existing, exists := wordFreq[word]; exists {
			existing.Frequency++
			existing.Score += score
		} else {
			wordFreq[word] = &KeywordResult{
				Word:      word,
				Frequency: 1,
				Score:     score,
				PosTag:    tok.Tag,
			}
		}
	}

	results := make([]KeywordResult, 0, len(wordFreq))
	for _, kr := range wordFreq {
		results = append(results, *kr)
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

	return results, nil
}

// TopWords returns just the keyword strings, for chunk metadata
func (ke *KeywordExtractor) TopWords(text string, limit int) ([]string, error) {
	results, err := ke.ExtractKeywords(text, limit)
	if err != nil {
		return nil, err
	}

	words := make([]string, len(results))
	for i, kr := range results {
		words[i] = kr.Word
	}
	return words, nil
}

// shouldSkipWord filters out stop words, short tokens, and punctuation
func (ke *KeywordExtractor) shouldSkipWord(word, posTag string) bool {
	if len(word) < ke.minLength {
		return true
	}
	if ke.stopWords[word] {
		return true
	}

	// Skip anything that is not mostly letters or digits
	alphanumeric := 0
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alphanumeric++
		}
	}
	if alphanumeric*2 < len(word) {
		return true
	}

	// Only keep content-bearing parts of speech
	switch {
	case strings.HasPrefix(posTag, "NN"): // nouns
		return false
	case strings.HasPrefix(posTag, "VB"): // verbs
		return false
	case strings.HasPrefix(posTag, "JJ"): // adjectives
		return false
	case strings.HasPrefix(posTag, "CD"): // numbers
		return false
	default:
		return true
	}
}

// calculateScore weights tokens by part of speech: nouns carry the most
// signal for retrieval, then adjectives, then verbs.
func (ke *KeywordExtractor) calculateScore(posTag string) float64 {
	switch {
	case strings.HasPrefix(posTag, "NNP"): // proper nouns
		return 3.0
	case strings.HasPrefix(posTag, "NN"):
		return 2.0
	case strings.HasPrefix(posTag, "JJ"):
		return 1.5
	case strings.HasPrefix(posTag, "VB"):
		return 1.0
	case strings.HasPrefix(posTag, "CD"):
		return 1.2
	default:
		return 0.5
	}
}
