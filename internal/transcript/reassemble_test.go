package transcript

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

func TestReassembleOrdersByIndex(t *testing.T) {
	got, err := Reassemble(map[int]string{2: "C", 0: "A", 1: "B"}, 3)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if got != "A\nB\nC" {
		t.Errorf("expected %q, got %q", "A\nB\nC", got)
	}
}

func TestReassembleEmpty(t *testing.T) {
	got, err := Reassemble(map[int]string{}, 0)
	if err != nil || got != "" {
		t.Errorf("expected empty transcript, got %q, %v", got, err)
	}
}

func TestReassemblePermutationInvariant(t *testing.T) {
	const n = 20
	texts := make([]string, n)
	for i := range texts {
		texts[i] = string(rune('a' + i))
	}

	var want string
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		// Simulate a random arrival order filling the result map.
		m := make(map[int]string, n)
		for _, i := range rng.Perm(n) {
			m[i] = texts[i]
		}
		got, err := Reassemble(m, n)
		if err != nil {
			t.Fatalf("Reassemble: %v", err)
		}
		if round == 0 {
			want = got
		} else if got != want {
			t.Fatalf("round %d: result depends on arrival order", round)
		}
	}
}

func TestReassembleDetectsGaps(t *testing.T) {
	cases := map[string]struct {
		texts map[int]string
		total int
	}{
		"missing middle":  {map[int]string{0: "a", 2: "c"}, 3},
		"missing last":    {map[int]string{0: "a", 1: "b"}, 3},
		"index too large": {map[int]string{0: "a", 5: "f"}, 2},
		"negative index":  {map[int]string{-1: "z", 0: "a"}, 2},
	}
	for name, tc := range cases {
		if _, err := Reassemble(tc.texts, tc.total); !errors.Is(err, types.ErrIncompleteResult) {
			t.Errorf("%s: expected ErrIncompleteResult, got %v", name, err)
		}
	}
}

func TestReassembleKeepsEmptyTexts(t *testing.T) {
	got, err := Reassemble(map[int]string{0: "A", 1: "", 2: "C"}, 3)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if got != "A\n\nC" {
		t.Errorf("silent chunk should still occupy its line, got %q", got)
	}
}

func TestFromResultsTreatsFailureAsGap(t *testing.T) {
	results := map[int]types.ChunkResult{
		0: {Index: 0, Text: "A"},
		1: {Index: 1, Err: types.ErrTranscriptionService},
	}
	if _, err := FromResults(results, 2); !errors.Is(err, types.ErrIncompleteResult) {
		t.Errorf("expected ErrIncompleteResult, got %v", err)
	}
}

func TestPartialSkipsFailures(t *testing.T) {
	results := map[int]types.ChunkResult{
		3: {Index: 3, Text: "D"},
		0: {Index: 0, Text: "A"},
		1: {Index: 1, Err: errors.New("nope")},
		2: {Index: 2, Text: "C"},
	}
	if got := Partial(results); got != "A\nC\nD" {
		t.Errorf("expected %q, got %q", "A\nC\nD", got)
	}
}
