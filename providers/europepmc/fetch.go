package europepmc

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

const sourceName = "europepmc"

// Fetcher is the Europe PMC metadata provider, used as a fallback when
// OpenAlex does not know a paper (biomedical literature mostly).
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
		BaseURL:    cfg.EuropePMCBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.MetadataTimeout},
	}
}

func (f *Fetcher) Name() string {
	return sourceName
}

// Lookup searches Europe PMC by DOI, or by title when the link carries none.
func (f *Fetcher) Lookup(ctx context.Context, paper models.ClaimedPaper) models.BibliographicRecord {
	doi := providers.ExtractDOI(string(paper.Link))
	title := strings.TrimSpace(string(paper.Title))

	var query string
	switch {
	case doi != "":
		query = fmt.Sprintf("DOI:%q", doi)
	case title != "":
		query = fmt.Sprintf("TITLE:%q", strings.ReplaceAll(title, `"`, ""))
	default:
		return failure("No title or DOI provided")
	}

	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {"1"},
	}
	searchURL := f.BaseURL + "?" + params.Encode()
	log := f.Logger.With(zap.String("query", query))
	log.Debug("Querying Europe PMC", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return failure(fmt.Sprintf("Europe PMC query failed: %v", err))
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		if providers.IsTimeout(err) {
			return failure("Europe PMC request timeout")
		}
		return failure(fmt.Sprintf("Europe PMC query failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("Europe PMC API error: %d", resp.StatusCode))
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return failure(fmt.Sprintf("Europe PMC query failed: %v", err))
	}
	if len(sr.ResultList.Result) == 0 {
		return failure("Paper not found in Europe PMC")
	}

	log.Info("Europe PMC record found")
	return mapArticle(&sr.ResultList.Result[0])
}

// mapArticle converts a Europe PMC article into a bibliographic record.
func mapArticle(a *Article) models.BibliographicRecord {
	rec := models.BibliographicRecord{
		Success:         true,
		Source:          sourceName,
		Title:           strings.TrimSuffix(a.Title, "."),
		PublicationYear: parseYear(a.PubYear),
		PublicationDate: a.FirstPubDate,
		CitedByCount:    a.CitedByCount,
		OpenAccess:      a.IsOpenAccess == "Y",
	}
	if a.DOI != "" {
		rec.DOI = "https://doi.org/" + a.DOI
	}
	for _, name := range strings.Split(strings.TrimSuffix(a.AuthorString, "."), ",") {
		if name = strings.TrimSpace(name); name != "" {
			rec.Authors = append(rec.Authors, models.AuthorMetrics{Name: name})
		}
	}
	if a.JournalTitle != "" {
		venueType := "journal"
		for _, pt := range a.PubTypeList.PubType {
			if strings.EqualFold(pt, "preprint") {
				venueType = "repository"
				break
			}
		}
		rec.Venue = &models.Venue{Name: a.JournalTitle, Type: venueType, ISSN: a.JournalISSN}
	}

	// Best open-access PDF link
	for _, u := range a.FullTextURLList.FullTextURL {
		if u.DocumentStyle == "pdf" && u.AvailabilityCode == "OA" {
			rec.PDFURL = u.URL
			break
		}
	}
	return rec
}

func failure(msg string) models.BibliographicRecord {
	return models.BibliographicRecord{Success: false, Source: sourceName, Error: msg}
}
