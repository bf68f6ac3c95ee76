package services

import (
	"context"
	"strings"

	"research-verifier/models"
	"research-verifier/providers"

	"go.uber.org/zap"
)

// PDFLinkFinder resolves a bare DOI to an open-access PDF link.
type PDFLinkFinder interface {
	GetPDFLink(ctx context.Context, doi string) (string, error)
}

// MetadataClient asks the configured providers in order and returns the
// first successful record. When every provider fails the errors are joined.
type MetadataClient struct {
	Providers []providers.MetadataProvider
	// Optional; fills PDFURL for records that have a DOI but no PDF.
	PDFLinks PDFLinkFinder
	Logger   *zap.Logger
}

func NewMetadataClient(logger *zap.Logger, pdfLinks PDFLinkFinder, list ...providers.MetadataProvider) *MetadataClient {
	return &MetadataClient{Providers: list, PDFLinks: pdfLinks, Logger: logger}
}

func (m *MetadataClient) Lookup(ctx context.Context, paper models.ClaimedPaper) models.BibliographicRecord {
	if len(m.Providers) == 0 {
		return models.BibliographicRecord{Success: false, Error: "No metadata providers configured"}
	}

	var errs []string
	var last models.BibliographicRecord
	for _, p := range m.Providers {
		rec := p.Lookup(ctx, paper)
		if rec.Success {
			m.enrichPDF(ctx, &rec)
			return rec
		}
		m.Logger.Debug("Metadata provider had no record",
			zap.String("provider", p.Name()), zap.String("reason", rec.Error))
		errs = append(errs, rec.Error)
		last = rec
	}
	last.Error = strings.Join(errs, "; ")
	return last
}

func (m *MetadataClient) enrichPDF(ctx context.Context, rec *models.BibliographicRecord) {
	if m.PDFLinks == nil || rec.PDFURL != "" || rec.DOI == "" {
		return
	}
	link, err := m.PDFLinks.GetPDFLink(ctx, normalizeDOI(rec.DOI))
	if err != nil {
		m.Logger.Debug("Unpaywall lookup failed", zap.String("doi", rec.DOI), zap.Error(err))
		return
	}
	rec.PDFURL = link
}

// normalizeDOI strips URL and scheme prefixes from a DOI.
func normalizeDOI(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "https://doi.org/")
	s = strings.TrimPrefix(s, "http://doi.org/")
	s = strings.TrimPrefix(s, "doi:")
	return strings.TrimSpace(s)
}
