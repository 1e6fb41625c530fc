package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/repository/contract"

	"github.com/google/uuid"
)

type knowledgeChunkRepository struct {
	uow *UnitOfWork
}

func (r *knowledgeChunkRepository) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	return r.uow.with(func(d *data) error {
		now := time.Now()
		for _, c := range chunks {
			if c.Id == uuid.Nil {
				c.Id = uuid.New()
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			c.UpdatedAt = now
			cp := *c
			cp.Embedding = append([]float32(nil), c.Embedding...)
			d.chunks = append(d.chunks, &cp)
		}
		return nil
	})
}

func (r *knowledgeChunkRepository) DeleteByDocumentKey(ctx context.Context, documentKey string) error {
	return r.uow.with(func(d *data) error {
		kept := d.chunks[:0:0]
		for _, c := range d.chunks {
			if c.DocumentKey != documentKey {
				kept = append(kept, c)
			}
		}
		d.chunks = kept
		return nil
	})
}

func (r *knowledgeChunkRepository) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredKnowledgeChunk, error) {
	if limit <= 0 {
		limit = 5
	}
	var scored []*contract.ScoredKnowledgeChunk
	err := r.uow.with(func(d *data) error {
		for _, c := range d.chunks {
			sim := cosine(embedding, c.Embedding)
			if sim < threshold {
				continue
			}
			cp := *c
			scored = append(scored, &contract.ScoredKnowledgeChunk{Chunk: &cp, Similarity: sim})
		}
		return nil
	})
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, err
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type tagRepository struct {
	uow *UnitOfWork
}

func (r *tagRepository) Upsert(ctx context.Context, tag *entity.Tag) error {
	return r.uow.with(func(d *data) error {
		if existing, ok := d.tags[tag.Name]; ok {
			tag.Id = existing.Id
			tag.CreatedAt = existing.CreatedAt
		}
		if tag.Id == uuid.Nil {
			tag.Id = uuid.New()
		}
		if tag.CreatedAt.IsZero() {
			tag.CreatedAt = time.Now()
		}
		cp := *tag
		d.tags[tag.Name] = &cp
		return nil
	})
}

func (r *tagRepository) Search(ctx context.Context, query string, limit int) ([]*entity.Tag, error) {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(query)
	var out []*entity.Tag
	err := r.uow.with(func(d *data) error {
		for _, t := range d.tags {
			if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
				cp := *t
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
