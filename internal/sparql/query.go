// Package sparql builds Wikidata SPARQL queries and decodes their JSON results.
//
// Builders are pure string functions. The endpoint enforces an execution-time
// budget, so bulk ingestion issues many small queries partitioned by type and
// era, each with an explicit LIMIT, instead of one unbounded sweep.
package sparql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// OccurrenceQID is the generic "occurrence" supertype used by broad sweeps
const OccurrenceQID = "Q1190554"

// ErrInvalidEntityID is returned for identifiers that are not of the form Q<digits>
var ErrInvalidEntityID = errors.New("invalid entity identifier")

var qidPattern = regexp.MustCompile(`^Q[1-9][0-9]*$`)

// ValidQID reports whether id looks like a Wikidata item identifier
func ValidQID(id string) bool {
	return qidPattern.MatchString(id)
}

// labelLanguages is the fallback chain used by the label service in bulk queries
const labelLanguages = "en,zh,fr,de,es,ja"

// TopicEventsQuery finds events related to a topic through any of five relations:
// instance/subclass of, main subject, part of, country and location.
// Candidates must carry both coordinates (P625) and a point-in-time date (P585).
func TopicEventsQuery(qid string, limit int) (string, error) {
	if !ValidQID(qid) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityID, qid)
	}
	if limit <= 0 {
		limit = 500
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT ?event ?eventLabel ?eventDescription ?date ?coord ?article ?image ?typeLabel ?countryLabel WHERE {\n")
	relations := []string{
		"?event wdt:P31/wdt:P279* wd:%s.",
		"?event wdt:P921 wd:%s.",
		"?event wdt:P361 wd:%s.",
		"?event wdt:P17 wd:%s.",
		"?event wdt:P276 wd:%s.",
	}
	for i, rel := range relations {
		if i == 0 {
			b.WriteString("  {\n")
		} else {
			b.WriteString("  } UNION {\n")
		}
		b.WriteString("    " + fmt.Sprintf(rel, qid) + "\n")
	}
	b.WriteString("  }\n")
	b.WriteString("  ?event wdt:P625 ?coord;\n")
	b.WriteString("         wdt:P585 ?date.\n")
	b.WriteString("  OPTIONAL { ?event wdt:P31 ?type. }\n")
	b.WriteString("  OPTIONAL { ?event wdt:P17 ?country. }\n")
	b.WriteString("  OPTIONAL { ?article schema:about ?event; schema:isPartOf <https://en.wikipedia.org/>. }\n")
	b.WriteString("  OPTIONAL { ?event wdt:P18 ?image. }\n")
	b.WriteString("  SERVICE wikibase:label { bd:serviceParam wikibase:language \"en\". }\n")
	b.WriteString("}\n")
	fmt.Fprintf(&b, "LIMIT %d", limit)
	return b.String(), nil
}

// EventQuery describes one bounded bulk query.
// Subject is a type QID matched through instance-of/subclass-of; empty means the
// occurrence supertype. From is inclusive and To exclusive; nil leaves the side open.
type EventQuery struct {
	Subject string
	From    *int
	To      *int
	Limit   int
}

// Year returns a pointer to y, for EventQuery bounds
func Year(y int) *int {
	return &y
}

// TypeQuery builds a query for instances of a specific type in a year range
func TypeQuery(typeQID string, from, to *int, limit int) (string, error) {
	if !ValidQID(typeQID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityID, typeQID)
	}
	return EventQuery{Subject: typeQID, From: from, To: to, Limit: limit}.Build()
}

// BroadQuery builds a query over any occurrence in a year range
func BroadQuery(from, to *int, limit int) string {
	q, _ := EventQuery{Subject: OccurrenceQID, From: from, To: to, Limit: limit}.Build()
	return q
}

// Build renders the query. Only image-bearing events are returned; the date comes
// from point in time (P585) or start time (P580).
func (q EventQuery) Build() (string, error) {
	subject := q.Subject
	if subject == "" {
		subject = OccurrenceQID
	}
	if !ValidQID(subject) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityID, subject)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 200
	}

	var filters []string
	if q.From != nil {
		filters = append(filters, fmt.Sprintf("FILTER(YEAR(?date) >= %d)", *q.From))
	}
	if q.To != nil {
		filters = append(filters, fmt.Sprintf("FILTER(YEAR(?date) < %d)", *q.To))
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT ?event ?eventLabel ?eventDescription ?date ?endDate\n")
	b.WriteString("       ?coord ?article ?image ?typeLabel ?countryLabel ?youtube WHERE {\n")
	fmt.Fprintf(&b, "  ?event wdt:P31/wdt:P279* wd:%s.\n", subject)
	b.WriteString("  ?event wdt:P625 ?coord.\n")
	b.WriteString("  ?event wdt:P18 ?image.\n")
	b.WriteString("  { ?event wdt:P585 ?date. } UNION { ?event wdt:P580 ?date. }\n")
	for _, f := range filters {
		b.WriteString("  " + f + "\n")
	}
	b.WriteString("  OPTIONAL { ?event wdt:P582 ?endDate. }\n")
	b.WriteString("  OPTIONAL { ?event wdt:P31 ?type. }\n")
	b.WriteString("  OPTIONAL { ?event wdt:P17 ?country. }\n")
	b.WriteString("  OPTIONAL { ?article schema:about ?event; schema:isPartOf <https://en.wikipedia.org/>. }\n")
	b.WriteString("  OPTIONAL { ?event wdt:P1651 ?youtube. }\n")
	fmt.Fprintf(&b, "  SERVICE wikibase:label { bd:serviceParam wikibase:language \"%s\". }\n", labelLanguages)
	b.WriteString("}\n")
	fmt.Fprintf(&b, "LIMIT %d", limit)
	return b.String(), nil
}

// YouTubeBatchQuery requests the YouTube video id (P1651) for exactly the given items.
// Invalid identifiers are skipped; an empty batch returns "".
func YouTubeBatchQuery(qids []string) string {
	values := make([]string, 0, len(qids))
	for _, id := range qids {
		if ValidQID(id) {
			values = append(values, "wd:"+id)
		}
	}
	if len(values) == 0 {
		return ""
	}
	return fmt.Sprintf("SELECT ?event ?youtube WHERE {\n  VALUES ?event { %s }\n  ?event wdt:P1651 ?youtube.\n}", strings.Join(values, " "))
}
