package rerank

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"ai-casebrief-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func doc(src store.SourceKind, id, snippet string, raw float64, age time.Duration) store.CandidateDocument {
	return store.CandidateDocument{Source: src, ID: id, Snippet: snippet, RawScore: raw, Timestamp: now.Add(-age)}
}

func TestRerankBudgetAndBounds(t *testing.T) {
	var internal, external []store.CandidateDocument
	for i := 0; i < 10; i++ {
		internal = append(internal, doc(store.SourceInternal, fmt.Sprintf("i%d", i), fmt.Sprintf("internal note number %d about venues", i), float64(i)/10, time.Duration(i)*24*time.Hour))
		external = append(external, doc(store.SourceExternal, fmt.Sprintf("e%d", i), fmt.Sprintf("external page %d on catering options", i), float64(i), time.Duration(i)*48*time.Hour))
	}

	cfg := DefaultConfig()
	out := Rerank([]Batch{{store.SourceInternal, internal}, {store.SourceExternal, external}}, cfg)

	require.Len(t, out, cfg.Budget)
	for i, d := range out {
		assert.GreaterOrEqual(t, d.Score, 0.0)
		assert.LessOrEqual(t, d.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, out[i-1].Score, d.Score)
		}
	}
}

func TestRerankTrustPriorOutranksHigherRawScore(t *testing.T) {
	internal := []store.CandidateDocument{{Source: store.SourceInternal, ID: "a", Snippet: "venue shortlist for lisbon offsite", RawScore: 0.9}}
	external := []store.CandidateDocument{{Source: store.SourceExternal, ID: "b", Snippet: "top conference hotels in portugal", RawScore: 0.95}}

	out := Rerank([]Batch{{store.SourceInternal, internal}, {store.SourceExternal, external}}, DefaultConfig())

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.InDelta(t, 0.75, out[0].Score, 1e-9)
	assert.InDelta(t, 0.715, out[1].Score, 1e-9)
}

func TestRerankIsDeterministicAcrossBatchOrder(t *testing.T) {
	internal := []store.CandidateDocument{
		doc(store.SourceInternal, "a", "alpha bravo charlie delta", 0.9, 0),
		doc(store.SourceInternal, "b", "echo foxtrot golf hotel", 0.5, 10*24*time.Hour),
	}
	external := []store.CandidateDocument{
		doc(store.SourceExternal, "x", "india juliet kilo lima", 12, 24*time.Hour),
		doc(store.SourceExternal, "y", "mike november oscar papa", 3, 60*24*time.Hour),
	}

	cfg := DefaultConfig()
	first := Rerank([]Batch{{store.SourceInternal, internal}, {store.SourceExternal, external}}, cfg)
	second := Rerank([]Batch{{store.SourceExternal, external}, {store.SourceInternal, internal}}, cfg)
	again := Rerank([]Batch{{store.SourceInternal, internal}, {store.SourceExternal, external}}, cfg)

	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
}

func TestRerankTieBreaksOnSourcePriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrustPrior[store.SourceExternal] = 1.0

	// identical normalized inputs, so only the tie-break separates them
	internal := []store.CandidateDocument{doc(store.SourceInternal, "i", "one two three four", 0.7, 0)}
	external := []store.CandidateDocument{doc(store.SourceExternal, "e", "five six seven eight", 0.7, 0)}

	out := Rerank([]Batch{{store.SourceExternal, external}, {store.SourceInternal, internal}}, cfg)

	require.Len(t, out, 2)
	assert.Equal(t, out[0].Score, out[1].Score)
	assert.Equal(t, "i", out[0].ID)
	assert.Equal(t, "e", out[1].ID)
}

func TestRerankDeduplicates(t *testing.T) {
	text := "the grand ballroom seats five hundred guests with a full stage and sound system"
	internal := []store.CandidateDocument{
		doc(store.SourceInternal, "same", "first copy of a note about the ballroom capacity", 0.9, 0),
		doc(store.SourceInternal, "same", "first copy of a note about the ballroom capacity", 0.4, 0),
		doc(store.SourceInternal, "near-a", text, 0.8, 0),
	}
	external := []store.CandidateDocument{
		doc(store.SourceExternal, "near-b", text+".", 0.95, 0),
		doc(store.SourceExternal, "other", "completely different text on parking", 0.1, 0),
	}

	out := Rerank([]Batch{{store.SourceInternal, internal}, {store.SourceExternal, external}}, DefaultConfig())

	ids := make([]string, len(out))
	for i, d := range out {
		ids[i] = d.ID
	}
	assert.ElementsMatch(t, []string{"same", "near-b", "other"}, ids)

	for _, d := range out {
		if d.ID == "same" {
			assert.Equal(t, 0.9, d.RawScore, "highest scoring instance survives")
		}
	}
}

func TestRerankPrefersHigherScoringNearDuplicate(t *testing.T) {
	text := "quarterly offsite planning guide for large teams in coastal venues"
	internal := []store.CandidateDocument{
		doc(store.SourceInternal, "low", text, 0.1, 400*24*time.Hour),
		doc(store.SourceInternal, "high", text, 0.9, 0),
	}

	out := Rerank([]Batch{{store.SourceInternal, internal}}, DefaultConfig())

	require.Len(t, out, 1)
	assert.Equal(t, "high", out[0].ID)
}

func TestRerankDegenerateBatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{Similarity: 1}

	out := Rerank([]Batch{{store.SourceExternal, []store.CandidateDocument{
		doc(store.SourceExternal, "a", "alpha words here", 7, 0),
		doc(store.SourceExternal, "b", "beta words there", 7, 0),
	}}}, cfg)

	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Relevance)
	assert.Equal(t, "a", out[0].ID, "fetch order breaks the remaining tie")
}

func TestRerankEmptyAndZeroBudget(t *testing.T) {
	assert.Empty(t, Rerank(nil, DefaultConfig()))

	cfg := DefaultConfig()
	cfg.Budget = 0
	out := Rerank([]Batch{{store.SourceInternal, []store.CandidateDocument{doc(store.SourceInternal, "a", "x", 1, 0)}}}, cfg)
	assert.Empty(t, out)
}

func TestRerankRandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultConfig()

	for round := 0; round < 50; round++ {
		var batches []Batch
		for _, src := range []store.SourceKind{store.SourceInternal, store.SourceExternal} {
			var docs []store.CandidateDocument
			n := rng.Intn(12)
			for i := 0; i < n; i++ {
				docs = append(docs, doc(src, fmt.Sprintf("%s-%d", src, rng.Intn(6)),
					fmt.Sprintf("w%d w%d w%d w%d", rng.Intn(5), rng.Intn(5), rng.Intn(5), rng.Intn(5)),
					rng.Float64()*100-50, time.Duration(rng.Intn(1000))*time.Hour))
			}
			batches = append(batches, Batch{Source: src, Documents: docs})
		}

		out := Rerank(batches, cfg)
		assert.LessOrEqual(t, len(out), cfg.Budget)

		seen := map[string]bool{}
		for i, d := range out {
			key := string(d.Source) + d.ID
			assert.False(t, seen[key], "duplicate identifier %s", key)
			seen[key] = true
			assert.True(t, d.Score >= 0 && d.Score <= 1)
			for j := 0; j < i; j++ {
				assert.Less(t, jaccard(shingles(out[j].Snippet), shingles(d.Snippet)), cfg.DuplicateThreshold)
			}
		}
	}
}

func TestDecay(t *testing.T) {
	half := 30 * 24 * time.Hour
	assert.Equal(t, 1.0, decay(now, now, half))
	assert.InDelta(t, 0.5, decay(now.Add(-half), now, half), 1e-9)
	assert.Equal(t, 0.0, decay(time.Time{}, now, half))
}

func TestShinglesAndJaccard(t *testing.T) {
	assert.Len(t, shingles("One two"), 2)
	assert.Len(t, shingles("a b c d"), 2)
	assert.Equal(t, 1.0, jaccard(shingles("A b, c!"), shingles("a B c")))
	assert.Equal(t, 0.0, jaccard(shingles(""), shingles("a b c")))
}
