package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRerankPicksClosestLexicalMatch(t *testing.T) {
	candidates := []RerankCandidate{
		{Prompt: "what is the capital of france", Response: "paris"},
		{Prompt: "what is the capital of germany", Response: "berlin"},
	}

	best := Rerank("what is the capital city of france", candidates)
	if assert.NotNil(t, best) {
		assert.Equal(t, "paris", best.Response)
	}
}

func TestRerankEmptyCandidatesReturnsNil(t *testing.T) {
	assert.Nil(t, Rerank("anything", nil))
}

func TestJaccardSimilarityIdenticalStringsIsOne(t *testing.T) {
	assert.Equal(t, 1.0, jaccardSimilarity("hello world", "hello world"))
}

func TestJaccardSimilarityEmptyStringIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccardSimilarity("", "hello"))
}
