package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"earthistory/internal/metadata"
	"earthistory/internal/models"
	"earthistory/internal/sparql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunQuery(ctx context.Context, query string) ([]sparql.Binding, error) {
	args := m.Called(ctx, query)
	rows, _ := args.Get(0).([]sparql.Binding)
	return rows, args.Error(1)
}

type mockSummaries struct {
	mock.Mock
}

func (m *mockSummaries) FetchPageSummary(ctx context.Context, title string) (*metadata.PageSummary, error) {
	args := m.Called(ctx, title)
	s, _ := args.Get(0).(*metadata.PageSummary)
	return s, args.Error(1)
}

func entity(n int) string {
	return fmt.Sprintf("http://www.wikidata.org/entity/Q%d", n)
}

func ytRow(n int, id string) sparql.Binding {
	return sparql.Binding{
		"event":   {Type: "uri", Value: entity(n)},
		"youtube": {Type: "literal", Value: id},
	}
}

func candidates(n int) []models.EventCandidate {
	out := make([]models.EventCandidate, n)
	for i := range out {
		out[i] = models.EventCandidate{Title: fmt.Sprintf("event %d", i+1), SourceURL: entity(i + 1)}
	}
	return out
}

func TestYouTubeEnrichBatches(t *testing.T) {
	cands := candidates(120)
	cands[0].YouTubeVideoID = models.StringPtr("already")
	cands[1].SourceURL = "https://example.org/not-an-entity"

	runner := new(mockRunner)
	runner.On("RunQuery", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "wd:Q3 ")
	})).Return([]sparql.Binding{ytRow(3, "vid3"), ytRow(3, "dup3"), ytRow(9999, "stray")}, nil).Once()
	runner.On("RunQuery", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "wd:Q53 ")
	})).Return(nil, errors.New("SPARQL request failed")).Once()
	runner.On("RunQuery", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "wd:Q103 ")
	})).Return([]sparql.Binding{ytRow(120, "vid120")}, nil).Once()

	var sleeps []time.Duration
	e := NewYouTubeEnricher(runner, 50, 1500*time.Millisecond, nil)
	e.SetSleep(func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	})

	n, err := e.Enrich(context.Background(), cands)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	runner.AssertExpectations(t)

	// 118 eligible candidates, 3 batches, 2 gaps
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}, sleeps)
	assert.Equal(t, "already", *cands[0].YouTubeVideoID)
	assert.Equal(t, "vid3", *cands[2].YouTubeVideoID)
	assert.Equal(t, "vid120", *cands[119].YouTubeVideoID)
	assert.Nil(t, cands[3].YouTubeVideoID)
	// only the video id is touched
	assert.Equal(t, "event 3", cands[2].Title)
	assert.Nil(t, cands[2].ImageURL)
}

func TestYouTubeEnrichNothingToDo(t *testing.T) {
	runner := new(mockRunner)
	e := NewYouTubeEnricher(runner, 50, time.Second, nil)

	cands := candidates(2)
	cands[0].YouTubeVideoID = models.StringPtr("a")
	cands[1].YouTubeVideoID = models.StringPtr("b")

	n, err := e.Enrich(context.Background(), cands)
	require.NoError(t, err)
	assert.Zero(t, n)
	runner.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything)
}

func TestYouTubeEnrichStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := new(mockRunner)
	runner.On("RunQuery", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()

	e := NewYouTubeEnricher(runner, 1, 0, nil)
	_, err := e.Enrich(ctx, candidates(3))
	assert.ErrorIs(t, err, context.Canceled)
	runner.AssertNumberOfCalls(t, "RunQuery", 1)
}

func TestPageTitle(t *testing.T) {
	c := models.EventCandidate{Title: "Siege of Orléans"}
	assert.Equal(t, "Siege of Orléans", PageTitle(c))

	c.WikipediaURL = models.StringPtr("https://en.wikipedia.org/wiki/Siege_of_Orl%C3%A9ans")
	assert.Equal(t, "Siege of Orléans", PageTitle(c))
}

func TestImageEnrich(t *testing.T) {
	withImage := models.EventCandidate{Title: "Has image", ImageURL: models.StringPtr("keep.jpg")}
	found := models.EventCandidate{Title: "Battle of Hastings", Summary: models.MissingSummary}
	missing := models.EventCandidate{Title: "Obscure skirmish", Summary: "kept summary"}
	failing := models.EventCandidate{Title: "Flaky"}

	summaries := new(mockSummaries)
	summaries.On("FetchPageSummary", mock.Anything, "Battle of Hastings").Return(&metadata.PageSummary{
		ImageURL: "https://upload.wikimedia.org/h.jpg",
		PageURL:  "https://en.wikipedia.org/wiki/Battle_of_Hastings",
		Extract:  "Fought in 1066.",
	}, nil)
	summaries.On("FetchPageSummary", mock.Anything, "Obscure skirmish").Return(nil, nil)
	summaries.On("FetchPageSummary", mock.Anything, "Flaky").Return(nil, errors.New("HTTP 503"))

	e := NewImageEnricher(summaries, 200*time.Millisecond, nil)
	var sleeps int
	e.SetSleep(func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	})

	cands := []models.EventCandidate{withImage, found, missing, failing}
	stats, err := e.Enrich(context.Background(), cands)
	require.NoError(t, err)

	assert.Equal(t, ImageStats{Enriched: 1, Skipped: 1, Missing: 2}, stats)
	assert.Equal(t, 2, sleeps)
	assert.Equal(t, "keep.jpg", *cands[0].ImageURL)
	assert.Equal(t, "https://upload.wikimedia.org/h.jpg", *cands[1].ImageURL)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Battle_of_Hastings", *cands[1].WikipediaURL)
	assert.Equal(t, "Fought in 1066.", cands[1].Summary)
	assert.Equal(t, "kept summary", cands[2].Summary)
	summaries.AssertExpectations(t)
}
