package httpapi

import "strings"

// RerankCandidate is a cache-aside lookup candidate carrying both the
// vector index's similarity score and, once reranked, a secondary
// lexical score.
type RerankCandidate struct {
	Prompt         string
	Response       string
	VectorScore    float64
	SecondaryScore float64
}

// Rerank picks the best candidate by Jaccard word-overlap similarity
// against prompt. It is an optional post-filter on the cache-aside
// lookup path only: the core engine's get_if_present always uses top_k=1
// and never reranks, keeping its single-candidate contract intact.
func Rerank(prompt string, candidates []RerankCandidate) *RerankCandidate {
	if len(candidates) == 0 {
		return nil
	}

	var best *RerankCandidate
	maxScore := -1.0
	for i := range candidates {
		score := jaccardSimilarity(prompt, candidates[i].Prompt)
		candidates[i].SecondaryScore = score
		if score > maxScore {
			maxScore = score
			best = &candidates[i]
		}
	}
	return best
}

// jaccardSimilarity computes word-set Jaccard similarity between two
// strings, case- and whitespace-insensitive.
func jaccardSimilarity(s1, s2 string) float64 {
	s1 = strings.ToLower(strings.TrimSpace(s1))
	s2 = strings.ToLower(strings.TrimSpace(s2))

	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	set1 := make(map[string]struct{})
	for _, w := range strings.Fields(s1) {
		set1[w] = struct{}{}
	}

	intersection := 0
	set2 := make(map[string]struct{})
	for _, w := range strings.Fields(s2) {
		if _, seen := set2[w]; seen {
			continue
		}
		set2[w] = struct{}{}
		if _, ok := set1[w]; ok {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
