package sparql

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Term is one bound value in a result row
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Binding is one result row, variable name to term
type Binding map[string]Term

// Value returns the trimmed value of variable name, or "" when unbound
func (b Binding) Value(name string) string {
	t, ok := b[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(t.Value)
}

// Response is the SPARQL 1.1 JSON results document
type Response struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// DecodeBindings parses a results document and returns its rows
func DecodeBindings(body []byte) ([]Binding, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode SPARQL response: %w", err)
	}
	return resp.Results.Bindings, nil
}

// RequestURL encodes query for a GET against endpoint
func RequestURL(endpoint, query string) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")
	return endpoint + "?" + params.Encode()
}

var entityURIPattern = regexp.MustCompile(`/(Q[0-9]+)$`)

// QIDFromURI extracts the item id from an entity URI such as
// http://www.wikidata.org/entity/Q42; it returns "" when there is none.
func QIDFromURI(uri string) string {
	m := entityURIPattern.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return ""
	}
	return m[1]
}
