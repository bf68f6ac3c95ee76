package services

import (
	"context"
	"testing"

	"research-verifier/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubProvider struct {
	name  string
	rec   models.BibliographicRecord
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Lookup(context.Context, models.ClaimedPaper) models.BibliographicRecord {
	s.calls++
	return s.rec
}

type stubPDF struct{ gotDOI string }

func (s *stubPDF) GetPDFLink(_ context.Context, doi string) (string, error) {
	s.gotDOI = doi
	return "https://oa.example/paper.pdf", nil
}

func TestMetadataClientFallsBack(t *testing.T) {
	primary := &stubProvider{name: "openalex", rec: models.BibliographicRecord{Error: "Paper not found in OpenAlex"}}
	fallback := &stubProvider{name: "europepmc", rec: models.BibliographicRecord{Success: true, Source: "europepmc", DOI: "https://doi.org/10.1/X"}}
	pdf := &stubPDF{}
	client := NewMetadataClient(zap.NewNop(), pdf, primary, fallback)

	rec := client.Lookup(context.Background(), models.ClaimedPaper{Title: "t"})

	assert.True(t, rec.Success)
	assert.Equal(t, "europepmc", rec.Source)
	assert.Equal(t, "10.1/x", pdf.gotDOI)
	assert.Equal(t, "https://oa.example/paper.pdf", rec.PDFURL)
}

func TestMetadataClientStopsAtFirstSuccess(t *testing.T) {
	primary := &stubProvider{name: "openalex", rec: models.BibliographicRecord{Success: true, PDFURL: "https://already/there.pdf", DOI: "10.1/x"}}
	fallback := &stubProvider{name: "europepmc"}
	pdf := &stubPDF{}
	client := NewMetadataClient(zap.NewNop(), pdf, primary, fallback)

	rec := client.Lookup(context.Background(), models.ClaimedPaper{Title: "t"})

	assert.True(t, rec.Success)
	assert.Zero(t, fallback.calls)
	assert.Empty(t, pdf.gotDOI)
	assert.Equal(t, "https://already/there.pdf", rec.PDFURL)
}

func TestMetadataClientJoinsErrors(t *testing.T) {
	client := NewMetadataClient(zap.NewNop(), nil,
		&stubProvider{name: "openalex", rec: models.BibliographicRecord{Source: "openalex", Error: "OpenAlex request timeout"}},
		&stubProvider{name: "europepmc", rec: models.BibliographicRecord{Source: "europepmc", Error: "Paper not found in Europe PMC"}},
	)

	rec := client.Lookup(context.Background(), models.ClaimedPaper{Title: "t"})

	assert.False(t, rec.Success)
	assert.Equal(t, "OpenAlex request timeout; Paper not found in Europe PMC", rec.Error)
}

func TestMetadataClientWithoutProviders(t *testing.T) {
	rec := NewMetadataClient(zap.NewNop(), nil).Lookup(context.Background(), models.ClaimedPaper{})
	assert.False(t, rec.Success)
	assert.NotEmpty(t, rec.Error)
}
