package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keywordSampleText = `Paris is the capital of France. The city of Paris hosts ` +
	`famous museums and historic architecture. Millions of visitors travel to Paris every year.`

func TestKeywordExtractor_ExtractKeywords(t *testing.T) {
	extractor := NewKeywordExtractor()

	results, err := extractor.ExtractKeywords(keywordSampleText, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 10)

	words := make(map[string]KeywordResult)
	for _, kr := range results {
		words[kr.Word] = kr
	}

	paris, found := words["paris"]
	require.True(t, found, "repeated proper noun should rank as a keyword")
	assert.Equal(t, 3, paris.Frequency)

	// Scores descend
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestKeywordExtractor_FiltersStopWords(t *testing.T) {
	extractor := NewKeywordExtractor()

	results, err := extractor.ExtractKeywords(keywordSampleText, 0)
	require.NoError(t, err)

	for _, kr := range results {
		assert.False(t, extractor.stopWords[kr.Word], "stop word %q should be filtered", kr.Word)
		assert.GreaterOrEqual(t, len(kr.Word), extractor.minLength)
	}
}

func TestKeywordExtractor_RespectsLimit(t *testing.T) {
	extractor := NewKeywordExtractor()

	results, err := extractor.ExtractKeywords(keywordSampleText, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestKeywordExtractor_TopWords(t *testing.T) {
	extractor := NewKeywordExtractor()

	words, err := extractor.TopWords(keywordSampleText, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(words), 5)

	for _, word := range words {
		assert.Equal(t, strings.ToLower(word), word, "keywords are lowercased")
	}
}

func TestKeywordExtractor_ShouldSkipWord(t *testing.T) {
	extractor := NewKeywordExtractor()

	tests := []struct {
		word string
		tag  string
		skip bool
	}{
		{"the", "DT", true},
		{"a", "DT", true},
		{"museum", "NN", false},
		{"paris", "NNP", false},
		{"visited", "VBD", false},
		{"famous", "JJ", false},
		{"quickly", "RB", true},
		{"...", ".", true},
		{"x", "NN", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.skip, extractor.shouldSkipWord(tt.word, tt.tag), "word=%q tag=%q", tt.word, tt.tag)
	}
}

func TestKeywordExtractor_ScoreWeighting(t *testing.T) {
	extractor := NewKeywordExtractor()

	properNoun := extractor.calculateScore("NNP")
	noun := extractor.calculateScore("NN")
	adjective := extractor.calculateScore("JJ")
	verb := extractor.calculateScore("VBD")

	assert.Greater(t, properNoun, noun)
	assert.Greater(t, noun, adjective)
	assert.Greater(t, adjective, verb)
}
