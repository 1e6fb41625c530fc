package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/store"
)

// Observation is what a tool hands back to the model, as JSON text.
type Observation struct {
	Tool    Kind
	Content string
}

type FieldGapResult struct {
	Missing []string `json:"missing_fields"`
	Present []string `json:"present_fields"`
}

type TagSearchResult struct {
	Tags []TagMatch `json:"tags"`
}

type TagMatch struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type FieldGapHandler interface {
	DetectGaps(ctx context.Context, call FieldGapCall) (FieldGapResult, error)
}

type TagSearchHandler interface {
	SearchTags(ctx context.Context, call TagSearchCall) (TagSearchResult, error)
}

// Retriever is satisfied by *rerank.Reranker.
type Retriever interface {
	Retrieve(ctx context.Context, query string, only ...store.SourceKind) store.RankedContext
}

// Handlers binds one implementation to every tool kind.
type Handlers struct {
	FieldGaps FieldGapHandler
	Tags      TagSearchHandler
	Retrieve  Retriever
}

func (h Handlers) Validate() error {
	switch {
	case h.FieldGaps == nil:
		return fmt.Errorf("tools: no handler for %s", KindFieldGaps)
	case h.Tags == nil:
		return fmt.Errorf("tools: no handler for %s", KindTagSearch)
	case h.Retrieve == nil:
		return fmt.Errorf("tools: no handler for %s", KindRetrieve)
	}
	return nil
}

func (h Handlers) Execute(ctx context.Context, call Call) (Observation, error) {
	var (
		result interface{}
		err    error
	)

	switch c := call.(type) {
	case FieldGapCall:
		result, err = h.FieldGaps.DetectGaps(ctx, c)
	case TagSearchCall:
		result, err = h.Tags.SearchTags(ctx, c)
	case RetrieveCall:
		result = h.Retrieve.Retrieve(ctx, c.Query, c.Sources...)
	default:
		return Observation{}, fmt.Errorf("%w: %T", ErrUnknownTool, call)
	}
	if err != nil {
		return Observation{}, err
	}

	content, err := json.Marshal(result)
	if err != nil {
		return Observation{}, fmt.Errorf("encode %s result: %w", call.Kind(), err)
	}
	return Observation{Tool: call.Kind(), Content: string(content)}, nil
}

// FieldGapDetector compares client data against a fixed list of required fields.
type FieldGapDetector struct {
	required []string
}

func DefaultRequiredFields() []string {
	return []string{"event_type", "event_date", "location", "attendees", "budget", "contact_email"}
}

func NewFieldGapDetector(required []string) *FieldGapDetector {
	if len(required) == 0 {
		required = DefaultRequiredFields()
	}
	return &FieldGapDetector{required: required}
}

func (d *FieldGapDetector) DetectGaps(ctx context.Context, call FieldGapCall) (FieldGapResult, error) {
	res := FieldGapResult{Missing: []string{}, Present: []string{}}
	for _, field := range d.required {
		if isBlank(call.ClientData[field]) {
			res.Missing = append(res.Missing, field)
		} else {
			res.Present = append(res.Present, field)
		}
	}
	return res, nil
}

func isBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0
	}
	return false
}

// TagCatalog searches the tags table.
type TagCatalog struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewTagCatalog(uowFactory unitofwork.RepositoryFactory) *TagCatalog {
	return &TagCatalog{uowFactory: uowFactory}
}

func (c *TagCatalog) SearchTags(ctx context.Context, call TagSearchCall) (TagSearchResult, error) {
	tags, err := c.uowFactory.NewUnitOfWork(ctx).TagRepository().Search(ctx, call.Query, call.Limit)
	if err != nil {
		return TagSearchResult{}, fmt.Errorf("search tags: %w", err)
	}
	res := TagSearchResult{Tags: make([]TagMatch, 0, len(tags))}
	for _, t := range tags {
		res.Tags = append(res.Tags, TagMatch{Name: t.Name, Description: t.Description})
	}
	return res, nil
}
