package rerank

import (
	"math"
	"sort"
	"time"

	"ai-casebrief-be/pkg/store"
)

// Batch is the output of one source for one query.
type Batch struct {
	Source    store.SourceKind
	Documents []store.CandidateDocument
}

type scored struct {
	doc   store.RankedDocument
	order int
}

// Rerank merges per-source batches into at most cfg.Budget documents. It is a
// pure function of its inputs: batch order and wall clock do not matter.
func Rerank(batches []Batch, cfg Config) []store.RankedDocument {
	ordered := make([]Batch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority() < ordered[j].Source.Priority()
	})

	reference := newestTimestamp(ordered)
	weights := cfg.normalizedWeights()

	var all []scored
	for _, b := range ordered {
		lo, hi := scoreRange(b.Documents)
		for _, d := range b.Documents {
			relevance := normalize(d.RawScore, lo, hi)
			recency := decay(d.Timestamp, reference, cfg.RecencyHalfLife)
			trust := clamp01(cfg.TrustPrior[b.Source])

			doc := d
			doc.Source = b.Source
			all = append(all, scored{
				doc: store.RankedDocument{
					CandidateDocument: doc,
					Relevance:         relevance,
					Recency:           recency,
					Score:             clamp01(weights.Source*trust + weights.Similarity*relevance + weights.Recency*recency),
				},
				order: len(all),
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].doc, all[j].doc
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := a.Source.Priority(), b.Source.Priority(); pa != pb {
			return pa < pb
		}
		return all[i].order < all[j].order
	})

	return dedupe(all, cfg)
}

func dedupe(sortedDocs []scored, cfg Config) []store.RankedDocument {
	budget := cfg.Budget
	if budget <= 0 {
		return []store.RankedDocument{}
	}

	kept := make([]store.RankedDocument, 0, budget)
	keptShingles := make([]map[string]struct{}, 0, budget)
	seen := make(map[string]struct{})

	for _, s := range sortedDocs {
		if len(kept) == budget {
			break
		}
		key := string(s.doc.Source) + "\x00" + s.doc.ID
		if _, dup := seen[key]; dup {
			continue
		}

		sh := shingles(s.doc.Snippet)
		nearDup := false
		for _, other := range keptShingles {
			if jaccard(sh, other) >= cfg.DuplicateThreshold {
				nearDup = true
				break
			}
		}
		if nearDup {
			continue
		}

		seen[key] = struct{}{}
		kept = append(kept, s.doc)
		keptShingles = append(keptShingles, sh)
	}
	return kept
}

func scoreRange(docs []store.CandidateDocument) (float64, float64) {
	if len(docs) == 0 {
		return 0, 0
	}
	lo, hi := docs[0].RawScore, docs[0].RawScore
	for _, d := range docs[1:] {
		lo = math.Min(lo, d.RawScore)
		hi = math.Max(hi, d.RawScore)
	}
	return lo, hi
}

// normalize maps raw into [0,1] within its batch. A batch whose scores are
// all equal keeps the raw value, clamped.
func normalize(raw, lo, hi float64) float64 {
	if hi == lo {
		return clamp01(raw)
	}
	return clamp01((raw - lo) / (hi - lo))
}

func newestTimestamp(batches []Batch) time.Time {
	var newest time.Time
	for _, b := range batches {
		for _, d := range b.Documents {
			if d.Timestamp.After(newest) {
				newest = d.Timestamp
			}
		}
	}
	return newest
}

func decay(ts, reference time.Time, halfLife time.Duration) float64 {
	if ts.IsZero() || halfLife <= 0 {
		return 0
	}
	age := reference.Sub(ts)
	if age <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(age)/float64(halfLife))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
