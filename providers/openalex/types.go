package openalex

// Work is the subset of an OpenAlex work object we read.
type Work struct {
	ID                   string       `json:"id"`
	Title                string       `json:"title"`
	DOI                  string       `json:"doi"`
	PublicationYear      int          `json:"publication_year"`
	PublicationDate      string       `json:"publication_date"`
	CitedByCount         int          `json:"cited_by_count"`
	Authorships          []Authorship `json:"authorships"`
	PrimaryLocation      *Location    `json:"primary_location"`
	OpenAccess           OpenAccess   `json:"open_access"`
	ReferencedWorksCount int          `json:"referenced_works_count"`
}

type Authorship struct {
	Author Author `json:"author"`
}

// Author only carries metrics when OpenAlex embeds them; the works endpoint
// usually returns display name and ORCID only.
type Author struct {
	DisplayName  string       `json:"display_name"`
	ORCID        string       `json:"orcid"`
	WorksCount   int          `json:"works_count"`
	CitedByCount int          `json:"cited_by_count"`
	SummaryStats SummaryStats `json:"summary_stats"`
}

type SummaryStats struct {
	HIndex int `json:"h_index"`
}

type Location struct {
	Source *Source `json:"source"`
	PDFURL string  `json:"pdf_url"`
}

type Source struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	ISSNL       string `json:"issn_l"`
}

type OpenAccess struct {
	IsOA bool `json:"is_oa"`
}

// SearchResponse is the envelope of /works?filter=... queries.
type SearchResponse struct {
	Results []Work `json:"results"`
}
