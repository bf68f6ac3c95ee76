package providers

import (
	"context"
	"errors"
	"net"
	"strings"

	"research-verifier/models"
)

// MetadataProvider looks a claimed paper up in a scholarly index
// (e.g. OpenAlex, Europe PMC). Lookup never returns an error: failures are
// reported inside the record with Success=false.
type MetadataProvider interface {
	Lookup(ctx context.Context, paper models.ClaimedPaper) models.BibliographicRecord

	// Name is the unique provider name (e.g. "openalex").
	Name() string
}

// ExtractDOI returns the part of a link after the last "doi.org/", without
// any query string or fragment, or "" if the link does not point at doi.org.
func ExtractDOI(link string) string {
	i := strings.LastIndex(link, "doi.org/")
	if i < 0 {
		return ""
	}
	doi := link[i+len("doi.org/"):]
	if j := strings.IndexAny(doi, "?#"); j >= 0 {
		doi = doi[:j]
	}
	return strings.TrimSpace(doi)
}

// IsTimeout reports whether err comes from a client or context deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
