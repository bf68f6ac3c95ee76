package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"research-verifier/config"
	"research-verifier/models"
	"research-verifier/providers"

	"go.uber.org/zap"
)

const sourceName = "openalex"

// Fetcher looks papers up in OpenAlex, by DOI when the claimed link is a
// doi.org link and by title search otherwise.
type Fetcher struct {
	Config     *config.Config
	Logger     *zap.Logger
	BaseURL    string
	HTTPClient *http.Client
}

func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config:     cfg,
		Logger:     logger,
		BaseURL:    strings.TrimRight(cfg.OpenAlexBaseURL, "/"),
		HTTPClient: &http.Client{Timeout: cfg.MetadataTimeout},
	}
}

func (f *Fetcher) Name() string { return sourceName }

func (f *Fetcher) Lookup(ctx context.Context, paper models.ClaimedPaper) models.BibliographicRecord {
	title := strings.TrimSpace(string(paper.Title))
	doi := providers.ExtractDOI(string(paper.Link))

	var reqURL string
	params := url.Values{}
	if f.Config.OpenAlexMailto != "" {
		params.Set("mailto", f.Config.OpenAlexMailto)
	}
	switch {
	case doi != "":
		reqURL = f.BaseURL + "/works/doi:" + doi
	case title != "":
		// Commas separate filters in OpenAlex syntax.
		params.Set("filter", "title.search:"+strings.ReplaceAll(title, ",", " "))
		params.Set("per-page", "1")
		reqURL = f.BaseURL + "/works"
	default:
		return failure("No title or DOI provided")
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	log := f.Logger.With(zap.String("doi", doi), zap.String("title", title))
	log.Debug("Querying OpenAlex", zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return failure(fmt.Sprintf("OpenAlex query failed: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		if providers.IsTimeout(err) {
			return failure("OpenAlex request timeout")
		}
		return failure(fmt.Sprintf("OpenAlex query failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("OpenAlex API error: %d", resp.StatusCode))
	}

	var work Work
	if doi != "" {
		if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
			return failure(fmt.Sprintf("OpenAlex query failed: %v", err))
		}
	} else {
		var sr SearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return failure(fmt.Sprintf("OpenAlex query failed: %v", err))
		}
		if len(sr.Results) == 0 {
			return failure("Paper not found in OpenAlex")
		}
		work = sr.Results[0]
	}

	log.Info("OpenAlex record found", zap.String("openalex_id", work.ID))
	return mapWork(&work)
}

func mapWork(w *Work) models.BibliographicRecord {
	rec := models.BibliographicRecord{
		Success:              true,
		Source:               sourceName,
		Title:                w.Title,
		DOI:                  w.DOI,
		PublicationYear:      w.PublicationYear,
		PublicationDate:      w.PublicationDate,
		CitedByCount:         w.CitedByCount,
		OpenAccess:           w.OpenAccess.IsOA,
		ReferencedWorksCount: w.ReferencedWorksCount,
	}
	for _, a := range w.Authorships {
		rec.Authors = append(rec.Authors, models.AuthorMetrics{
			Name:         a.Author.DisplayName,
			ORCID:        a.Author.ORCID,
			WorksCount:   a.Author.WorksCount,
			CitedByCount: a.Author.CitedByCount,
			HIndex:       a.Author.SummaryStats.HIndex,
		})
	}
	if w.PrimaryLocation != nil {
		rec.PDFURL = w.PrimaryLocation.PDFURL
		if s := w.PrimaryLocation.Source; s != nil {
			rec.Venue = &models.Venue{Name: s.DisplayName, Type: s.Type, ISSN: s.ISSNL}
		}
	}
	return rec
}

func failure(msg string) models.BibliographicRecord {
	return models.BibliographicRecord{Success: false, Source: sourceName, Error: msg}
}
