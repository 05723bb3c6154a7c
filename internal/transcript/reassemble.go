package transcript

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// Separator joins consecutive chunk texts.
const Separator = "\n"

// Reassemble joins texts for indices 0..total-1 in ascending order. Every index
// must be present; a gap or an unexpected index fails with ErrIncompleteResult.
func Reassemble(texts map[int]string, total int) (string, error) {
	if len(texts) != total {
		return "", fmt.Errorf("%w: have %d of %d chunks (missing %v)",
			types.ErrIncompleteResult, len(texts), total, missing(texts, total))
	}

	parts := make([]string, total)
	for i := 0; i < total; i++ {
		text, ok := texts[i]
		if !ok {
			return "", fmt.Errorf("%w: missing chunk %v", types.ErrIncompleteResult, missing(texts, total))
		}
		parts[i] = text
	}
	return strings.Join(parts, Separator), nil
}

// FromResults reassembles a complete batch of chunk results. Any failed
// result counts as a gap.
func FromResults(results map[int]types.ChunkResult, total int) (string, error) {
	texts := make(map[int]string, len(results))
	for i, r := range results {
		if r.OK() {
			texts[i] = r.Text
		}
	}
	return Reassemble(texts, total)
}

// Partial joins whatever succeeded, in index order, skipping failures.
// Used only by the collect-all policy.
func Partial(results map[int]types.ChunkResult) string {
	indices := make([]int, 0, len(results))
	for i, r := range results {
		if r.OK() {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	parts := make([]string, len(indices))
	for n, i := range indices {
		parts[n] = results[i].Text
	}
	return strings.Join(parts, Separator)
}

func missing(texts map[int]string, total int) []int {
	var gaps []int
	for i := 0; i < total; i++ {
		if _, ok := texts[i]; !ok {
			gaps = append(gaps, i)
		}
	}
	return gaps
}
