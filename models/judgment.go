package models

// ContentFetchResult is what the link resolver extracted from a claimed link.
// On failure only Success, URL and Error are set.
type ContentFetchResult struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Authors  string `json:"authors,omitempty"`
	Date     string `json:"date,omitempty"`
	FullText string `json:"full_text,omitempty"`
	Error    string `json:"error,omitempty"`
}

type AuthorMetrics struct {
	Name         string `json:"name"`
	ORCID        string `json:"orcid,omitempty"`
	WorksCount   int    `json:"works_count"`
	CitedByCount int    `json:"cited_by_count"`
	HIndex       int    `json:"h_index"`
}

type Venue struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	ISSN string `json:"issn,omitempty"`
}

// BibliographicRecord is the scholarly-index view of a paper.
type BibliographicRecord struct {
	Success              bool            `json:"success"`
	Source               string          `json:"source,omitempty"`
	Title                string          `json:"title,omitempty"`
	DOI                  string          `json:"doi,omitempty"`
	PublicationYear      int             `json:"publication_year,omitempty"`
	PublicationDate      string          `json:"publication_date,omitempty"`
	CitedByCount         int             `json:"cited_by_count,omitempty"`
	Authors              []AuthorMetrics `json:"authors,omitempty"`
	Venue                *Venue          `json:"venue,omitempty"`
	OpenAccess           bool            `json:"open_access,omitempty"`
	PDFURL               string          `json:"pdf_url,omitempty"`
	ReferencedWorksCount int             `json:"referenced_works_count,omitempty"`
	Error                string          `json:"error,omitempty"`
}

type ContentMatch struct {
	Matches     bool     `json:"matches"`
	Confidence  float64  `json:"confidence"`
	TitleMatch  bool     `json:"title_match"`
	AuthorMatch bool     `json:"author_match"`
	DateMatch   bool     `json:"date_match"`
	Issues      []string `json:"issues"`
	Explanation string   `json:"explanation"`
}

type PaperQuality struct {
	CredibilityScore float64 `json:"credibility_score"`
	QualityScore     float64 `json:"quality_score"`
	CredibilityNotes string  `json:"credibility_notes"`
	QualityNotes     string  `json:"quality_notes"`
}

type SummaryEvaluation struct {
	Accurate bool     `json:"accurate"`
	Score    float64  `json:"score"`
	Issues   []string `json:"issues"`
	Notes    string   `json:"notes"`
}

// PaperJudgment is the shape the paper judge is asked to answer in.
type PaperJudgment struct {
	ContentMatch      ContentMatch      `json:"content_match"`
	PaperQuality      PaperQuality      `json:"paper_quality"`
	SummaryEvaluation SummaryEvaluation `json:"summary_evaluation"`
	OverallAssessment string            `json:"overall_assessment"`
}

// VerdictDetails is the reusable part of a paper verdict; it is what the
// verdict cache stores per link.
type VerdictDetails struct {
	ContentFetch          ContentFetchResult  `json:"content_fetch"`
	BibliographicMetadata BibliographicRecord `json:"bibliographic_metadata"`
	ContentVerification   ContentMatch        `json:"content_verification"`
	PaperQuality          PaperQuality        `json:"paper_quality"`
	SummaryEvaluation     SummaryEvaluation   `json:"summary_evaluation"`
	OverallAssessment     string              `json:"overall_assessment"`
	CredibilityScore      float64             `json:"credibility_score"`
	CredibilityNotes      string              `json:"credibility_notes"`
	OverallQuality        float64             `json:"overall_quality"`
}

// Verdict is the in-flight result for one claimed paper.
type Verdict struct {
	PaperIndex       int    `json:"paper_index"`
	Title            string `json:"title"`
	Link             string `json:"link"`
	ClaimedAuthors   string `json:"claimed_authors"`
	ClaimedDate      string `json:"claimed_date"`
	AssistantSummary string `json:"assistant_summary"`
	VerdictDetails
	Reused bool `json:"reused"`
}

type ResponseQuality struct {
	AddressesQuestion   bool    `json:"addresses_question"`
	ClearAndHelpful     bool    `json:"clear_and_helpful"`
	FollowsInstructions bool    `json:"follows_instructions"`
	Score               float64 `json:"score"`
	Notes               string  `json:"notes"`
}

type AccuracyAssessment struct {
	ClaimsSupported      bool     `json:"claims_supported"`
	SummariesAccurate    bool     `json:"summaries_accurate"`
	PapersCitedCorrectly bool     `json:"papers_cited_correctly"`
	FactualErrors        []string `json:"factual_errors"`
	Score                float64  `json:"score"`
	Notes                string   `json:"notes"`
}

type PaperAssessment struct {
	PapersRelevant    bool     `json:"papers_relevant"`
	PapersHighQuality bool     `json:"papers_high_quality"`
	AvgPaperQuality   float64  `json:"avg_paper_quality"`
	Concerns          []string `json:"concerns"`
	Notes             string   `json:"notes"`
}

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

type HallucinationWarning struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Explanation string `json:"explanation"`
}

// ResponseEvaluation is the judgement of the assistant turn as a whole.
type ResponseEvaluation struct {
	ConfidenceScore       float64                `json:"confidence_score"`
	ResponseQuality       ResponseQuality        `json:"response_quality"`
	AccuracyAssessment    AccuracyAssessment     `json:"accuracy_assessment"`
	PaperAssessment       PaperAssessment        `json:"paper_assessment"`
	HallucinationWarnings []HallucinationWarning `json:"hallucination_warnings"`
	Summary               string                 `json:"summary"`
}
