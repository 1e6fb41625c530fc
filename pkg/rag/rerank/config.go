package rerank

import (
	"time"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/pkg/store"
)

type Weights struct {
	Source     float64
	Similarity float64
	Recency    float64
}

type Config struct {
	Weights            Weights
	TrustPrior         map[store.SourceKind]float64
	RecencyHalfLife    time.Duration
	Budget             int
	DuplicateThreshold float64
	PerSourceLimit     int
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{Source: 0.3, Similarity: 0.5, Recency: 0.2},
		TrustPrior: map[store.SourceKind]float64{
			store.SourceInternal: 1.0,
			store.SourceExternal: 0.8,
		},
		RecencyHalfLife:    30 * 24 * time.Hour,
		Budget:             8,
		DuplicateThreshold: 0.85,
		PerSourceLimit:     10,
	}
}

func FromAppConfig(r config.RerankConfig, perSourceLimit int) Config {
	return Config{
		Weights: Weights{Source: r.WeightSource, Similarity: r.WeightSimilarity, Recency: r.WeightRecency},
		TrustPrior: map[store.SourceKind]float64{
			store.SourceInternal: r.TrustInternal,
			store.SourceExternal: r.TrustExternal,
		},
		RecencyHalfLife:    time.Duration(r.RecencyHalfLifeDays * float64(24*time.Hour)),
		Budget:             r.Budget,
		DuplicateThreshold: r.DuplicateThreshold,
		PerSourceLimit:     perSourceLimit,
	}
}

// normalizedWeights scales the weights to sum to 1 so composite scores stay in [0,1].
func (c Config) normalizedWeights() Weights {
	w := c.Weights
	sum := w.Source + w.Similarity + w.Recency
	if sum <= 0 {
		return Weights{Similarity: 1}
	}
	return Weights{Source: w.Source / sum, Similarity: w.Similarity / sum, Recency: w.Recency / sum}
}
