package openalex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"research-verifier/config"
	"research-verifier/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const workJSON = `{
	"id": "https://openalex.org/W1",
	"title": "Attention Is All You Need",
	"doi": "https://doi.org/10.5555/3295222",
	"publication_year": 2017,
	"publication_date": "2017-06-12",
	"cited_by_count": 100000,
	"authorships": [{"author": {"display_name": "Ashish Vaswani", "orcid": "https://orcid.org/0000-0001"}}],
	"primary_location": {"source": {"display_name": "NeurIPS", "type": "conference", "issn_l": "1049-5258"}, "pdf_url": "https://example.org/a.pdf"},
	"open_access": {"is_oa": true},
	"referenced_works_count": 42
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{OpenAlexBaseURL: srv.URL, MetadataTimeout: 2 * time.Second}
	return NewFetcher(cfg, zap.NewNop())
}

func TestLookupByDOI(t *testing.T) {
	var gotPath string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(workJSON))
	})

	rec := f.Lookup(context.Background(), models.ClaimedPaper{
		Title: "ignored when a DOI is present",
		Link:  "https://doi.org/10.5555/3295222",
	})

	require.True(t, rec.Success, rec.Error)
	assert.Equal(t, "/works/doi:10.5555/3295222", gotPath)
	assert.Equal(t, "Attention Is All You Need", rec.Title)
	assert.Equal(t, 2017, rec.PublicationYear)
	assert.Equal(t, 100000, rec.CitedByCount)
	assert.True(t, rec.OpenAccess)
	assert.Equal(t, 42, rec.ReferencedWorksCount)
	require.Len(t, rec.Authors, 1)
	assert.Equal(t, "Ashish Vaswani", rec.Authors[0].Name)
	require.NotNil(t, rec.Venue)
	assert.Equal(t, "1049-5258", rec.Venue.ISSN)
	assert.Equal(t, "https://example.org/a.pdf", rec.PDFURL)
}

func TestLookupByTitle(t *testing.T) {
	var gotFilter, gotPerPage string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		gotPerPage = r.URL.Query().Get("per-page")
		w.Write([]byte(`{"results": [` + workJSON + `]}`))
	})

	rec := f.Lookup(context.Background(), models.ClaimedPaper{
		Title: "Attention, Is All You Need",
		Link:  "https://arxiv.org/abs/1706.03762",
	})

	require.True(t, rec.Success, rec.Error)
	assert.Equal(t, "title.search:Attention  Is All You Need", gotFilter)
	assert.Equal(t, "1", gotPerPage)
}

func TestLookupFailures(t *testing.T) {
	tests := []struct {
		name    string
		paper   models.ClaimedPaper
		status  int
		body    string
		wantErr string
	}{
		{"no title or doi", models.ClaimedPaper{}, 200, `{}`, "No title or DOI provided"},
		{"empty title search", models.ClaimedPaper{Title: "Nothing"}, 200, `{"results": []}`, "Paper not found in OpenAlex"},
		{"doi 404", models.ClaimedPaper{Link: "https://doi.org/10.1/missing"}, 404, ``, "OpenAlex API error: 404"},
		{"server error", models.ClaimedPaper{Title: "x"}, 503, ``, "OpenAlex API error: 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			rec := f.Lookup(context.Background(), tt.paper)
			assert.False(t, rec.Success)
			assert.Equal(t, tt.wantErr, rec.Error)
		})
	}
}

func TestLookupTimeout(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	})
	f.HTTPClient.Timeout = 50 * time.Millisecond

	rec := f.Lookup(context.Background(), models.ClaimedPaper{Title: "slow"})
	assert.False(t, rec.Success)
	assert.Equal(t, "OpenAlex request timeout", rec.Error)
}

func TestLookupByDOIDropsLinkQuery(t *testing.T) {
	var gotPath, gotRawQuery string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRawQuery = r.URL.RawQuery
		w.Write([]byte(workJSON))
	})
	f.Config.OpenAlexMailto = "a@b.c"

	rec := f.Lookup(context.Background(), models.ClaimedPaper{Link: "https://doi.org/10.1/abc?utm_source=x#section"})

	require.True(t, rec.Success, rec.Error)
	assert.Equal(t, "/works/doi:10.1/abc", gotPath)
	assert.Equal(t, "mailto=a%40b.c", gotRawQuery)
}
