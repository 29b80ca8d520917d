package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tfidfCorpus() []string {
	return []string{
		"redis stores keys and values in memory",
		"chroma stores vectors for similarity search",
		"ollama produces embedding vectors locally",
	}
}

func TestTFIDFScorer_DistinctiveTermsRankHigher(t *testing.T) {
	scorer := NewTFIDFScorer(tfidfCorpus())

	results := scorer.Score("redis stores keys and values in memory", 0)
	require.NotEmpty(t, results)

	scores := make(map[string]float64)
	for _, kr := range results {
		scores[kr.Word] = kr.Score
	}

	// "redis" appears in one document, "stores" in two
	assert.Greater(t, scores["redis"], scores["stores"])
}

func TestTFIDFScorer_ScoresDescend(t *testing.T) {
	scorer := NewTFIDFScorer(tfidfCorpus())

	results := scorer.Score("chroma stores vectors for similarity search", 0)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestTFIDFScorer_RespectsLimit(t *testing.T) {
	scorer := NewTFIDFScorer(tfidfCorpus())

	results := scorer.Score("redis stores keys and values in memory", 2)
	assert.Len(t, results, 2)
}

func TestTFIDFScorer_UnknownWordsSkipped(t *testing.T) {
	scorer := NewTFIDFScorer(tfidfCorpus())

	results := scorer.Score("zeppelin flies high", 0)
	assert.Empty(t, results, "terms outside the corpus vocabulary carry no score")
}

func TestTFIDFScorer_EmptyDocument(t *testing.T) {
	scorer := NewTFIDFScorer(tfidfCorpus())
	assert.Nil(t, scorer.Score("", 0))
}

func TestTFIDFScorer_FrequencyCounted(t *testing.T) {
	scorer := NewTFIDFScorer([]string{
		"vectors vectors vectors everywhere",
		"one plain sentence",
	})

	results := scorer.Score("vectors vectors vectors everywhere", 0)
	require.NotEmpty(t, results)

	var vectors *KeywordResult
	for i := range results {
		if results[i].Word == "vectors" {
			vectors = &results[i]
		}
	}
	require.NotNil(t, vectors)
	assert.Equal(t, 3, vectors.Frequency)
	assert.Equal(t, "TFIDF", vectors.PosTag)
}
