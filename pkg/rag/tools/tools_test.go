package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/repository/memory"
	"ai-casebrief-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		input   string
		want    Call
		wantErr error
	}{
		{"field gaps", "detect_field_gaps", `{"client_data":{"budget":"10k"}}`, FieldGapCall{ClientData: map[string]interface{}{"budget": "10k"}}, nil},
		{"field gaps empty input", "detect_field_gaps", ``, FieldGapCall{ClientData: map[string]interface{}{}}, nil},
		{"tag search default limit", "search_tags", `{"query":" gala "}`, TagSearchCall{Query: "gala", Limit: 10}, nil},
		{"retrieve with sources", "retrieve_evidence", `{"query":"venues","sources":["internal"]}`, RetrieveCall{Query: "venues", Sources: []store.SourceKind{store.SourceInternal}}, nil},
		{"retrieve bad source", "retrieve_evidence", `{"query":"venues","sources":["intranet"]}`, nil, ErrMalformedInput},
		{"missing query", "search_tags", `{}`, nil, ErrMalformedInput},
		{"unknown field", "search_tags", `{"query":"x","extra":1}`, nil, ErrMalformedInput},
		{"not json", "search_tags", `query=x`, nil, ErrMalformedInput},
		{"unknown tool", "send_email", `{}`, nil, ErrUnknownTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.tool, json.RawMessage(tt.input))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubRetriever struct {
	gotQuery string
	gotOnly  []store.SourceKind
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, only ...store.SourceKind) store.RankedContext {
	s.gotQuery, s.gotOnly = query, only
	return store.RankedContext{Query: query, Documents: []store.RankedDocument{{CandidateDocument: store.CandidateDocument{ID: "d1"}, Score: 0.5}}}
}

func TestHandlersExecuteEveryKind(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	require.NoError(t, mem.NewUnitOfWork(ctx).TagRepository().Upsert(ctx, &entity.Tag{Name: "gala-dinner", Description: "formal evening"}))

	retriever := &stubRetriever{}
	h := Handlers{
		FieldGaps: NewFieldGapDetector([]string{"budget", "location", "attendees"}),
		Tags:      NewTagCatalog(mem),
		Retrieve:  retriever,
	}
	require.NoError(t, h.Validate())

	inputs := map[Kind]string{
		KindFieldGaps: `{"client_data":{"budget":"5k","location":"  ","attendees":[]}}`,
		KindTagSearch: `{"query":"gala"}`,
		KindRetrieve:  `{"query":"bali venues","sources":["external"]}`,
	}
	for _, kind := range Kinds() {
		call, err := Decode(string(kind), json.RawMessage(inputs[kind]))
		require.NoError(t, err)

		obs, err := h.Execute(ctx, call)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, obs.Tool)
		assert.True(t, json.Valid([]byte(obs.Content)))
	}

	obs, _ := h.Execute(ctx, FieldGapCall{ClientData: map[string]interface{}{"budget": "5k", "location": " "}})
	var gaps FieldGapResult
	require.NoError(t, json.Unmarshal([]byte(obs.Content), &gaps))
	assert.Equal(t, []string{"location", "attendees"}, gaps.Missing)
	assert.Equal(t, []string{"budget"}, gaps.Present)

	assert.Equal(t, "bali venues", retriever.gotQuery)
	assert.Equal(t, []store.SourceKind{store.SourceExternal}, retriever.gotOnly)
}

func TestHandlersValidate(t *testing.T) {
	assert.Error(t, Handlers{}.Validate())
	assert.Error(t, Handlers{FieldGaps: NewFieldGapDetector(nil)}.Validate())
}

func TestSpecsCoverEveryKind(t *testing.T) {
	specs := Specs()
	require.Len(t, specs, len(Kinds()))
	for i, k := range Kinds() {
		assert.Equal(t, k, specs[i].Name)
	}
}
