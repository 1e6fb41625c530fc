package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-casebrief-be/pkg/store"
)

type Kind string

const (
	KindFieldGaps Kind = "detect_field_gaps"
	KindTagSearch Kind = "search_tags"
	KindRetrieve  Kind = "retrieve_evidence"
)

// Kinds lists every tool in the order they are described to the model.
func Kinds() []Kind {
	return []Kind{KindFieldGaps, KindTagSearch, KindRetrieve}
}

var (
	ErrUnknownTool    = errors.New("unknown tool")
	ErrMalformedInput = errors.New("malformed tool input")
)

// Call is a decoded tool request. The unexported method closes the set:
// only the types in this file implement it.
type Call interface {
	Kind() Kind
	isCall()
}

type FieldGapCall struct {
	ClientData map[string]interface{} `json:"client_data"`
}

type TagSearchCall struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type RetrieveCall struct {
	Query   string             `json:"query"`
	Sources []store.SourceKind `json:"sources,omitempty"`
}

func (FieldGapCall) Kind() Kind  { return KindFieldGaps }
func (TagSearchCall) Kind() Kind { return KindTagSearch }
func (RetrieveCall) Kind() Kind  { return KindRetrieve }

func (FieldGapCall) isCall()  {}
func (TagSearchCall) isCall() {}
func (RetrieveCall) isCall()  {}

// Decode turns a tool name and its raw JSON input into a typed Call.
func Decode(name string, input json.RawMessage) (Call, error) {
	if len(bytes.TrimSpace(input)) == 0 {
		input = json.RawMessage("{}")
	}

	switch Kind(name) {
	case KindFieldGaps:
		var c FieldGapCall
		if err := strictUnmarshal(input, &c); err != nil {
			return nil, err
		}
		if c.ClientData == nil {
			c.ClientData = map[string]interface{}{}
		}
		return c, nil

	case KindTagSearch:
		var c TagSearchCall
		if err := strictUnmarshal(input, &c); err != nil {
			return nil, err
		}
		c.Query = strings.TrimSpace(c.Query)
		if c.Query == "" {
			return nil, fmt.Errorf("%w: %s requires query", ErrMalformedInput, name)
		}
		if c.Limit <= 0 || c.Limit > 25 {
			c.Limit = 10
		}
		return c, nil

	case KindRetrieve:
		var c RetrieveCall
		if err := strictUnmarshal(input, &c); err != nil {
			return nil, err
		}
		c.Query = strings.TrimSpace(c.Query)
		if c.Query == "" {
			return nil, fmt.Errorf("%w: %s requires query", ErrMalformedInput, name)
		}
		for _, s := range c.Sources {
			if !s.Valid() {
				return nil, fmt.Errorf("%w: unknown source %q", ErrMalformedInput, s)
			}
		}
		return c, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

func strictUnmarshal(input json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return nil
}

// Spec describes a tool to the reasoning backend.
type Spec struct {
	Name        Kind                   `json:"name"`
	Description string                 `json:"description"`
	Input       map[string]interface{} `json:"input"`
}

func Specs() []Spec {
	return []Spec{
		{
			Name:        KindFieldGaps,
			Description: "Check extracted client data against the required intake fields and list what is missing.",
			Input:       map[string]interface{}{"client_data": "object of field name to value"},
		},
		{
			Name:        KindTagSearch,
			Description: "Search the tag catalog for tags that describe the inquiry.",
			Input:       map[string]interface{}{"query": "string", "limit": "integer, optional"},
		},
		{
			Name:        KindRetrieve,
			Description: "Retrieve ranked evidence from internal knowledge and the web.",
			Input:       map[string]interface{}{"query": "string", "sources": `optional array of "internal" | "external"`},
		},
	}
}
