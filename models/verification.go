package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaperVerdict is the link-keyed cache of finished paper verdicts. The link
// is compared as an exact string.
type PaperVerdict struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Link    string `json:"link" gorm:"size:1000;uniqueIndex;not null"`
	Title   string `json:"title" gorm:"type:text"`
	Authors string `json:"authors" gorm:"type:text"`
	Date    string `json:"date" gorm:"size:100"`

	VerificationResult datatypes.JSONType[VerdictDetails] `json:"verification_result"`
}

func (PaperVerdict) TableName() string { return "paper_verdicts" }

// MessageVerification is the stored report for one assistant message.
type MessageVerification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	MessageID uint `json:"message_id" gorm:"index;not null"`

	ConfidenceScore     float64                                `json:"confidence_score"`
	TextualVerification datatypes.JSONType[ResponseEvaluation] `json:"textual_verification"`
	Summary             string                                 `json:"summary" gorm:"type:text"`

	PaperVerifications []PaperVerification `json:"paper_verifications" gorm:"foreignKey:VerificationID;constraint:OnDelete:CASCADE"`
}

func (MessageVerification) TableName() string { return "message_verifications" }

// PaperVerification is one row per claimed paper of a verified message.
type PaperVerification struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	CreatedAt      time.Time `json:"created_at"`
	VerificationID uint      `json:"-" gorm:"index;not null"`

	PaperIndex       int    `json:"paper_index"`
	Title            string `json:"title" gorm:"type:text"`
	Link             string `json:"link" gorm:"type:text"`
	ClaimedAuthors   string `json:"claimed_authors" gorm:"type:text"`
	ClaimedDate      string `json:"claimed_date" gorm:"size:100"`
	AssistantSummary string `json:"assistant_summary" gorm:"type:text"`

	ContentFetch          datatypes.JSONType[ContentFetchResult]  `json:"content_fetch"`
	BibliographicMetadata datatypes.JSONType[BibliographicRecord] `json:"bibliographic_metadata"`
	ContentVerification   datatypes.JSONType[ContentMatch]        `json:"content_verification"`
	PaperQuality          datatypes.JSONType[PaperQuality]        `json:"paper_quality"`
	SummaryEvaluation     datatypes.JSONType[SummaryEvaluation]   `json:"summary_evaluation"`

	OverallAssessment string  `json:"overall_assessment" gorm:"type:text"`
	CredibilityScore  float64 `json:"credibility_score"`
	CredibilityNotes  string  `json:"credibility_notes" gorm:"type:text"`
	OverallQuality    float64 `json:"overall_quality"`
	Reused            bool    `json:"reused"`
}

func (PaperVerification) TableName() string { return "paper_verifications" }

// NewPaperVerification converts an in-flight verdict into its stored row.
func NewPaperVerification(v Verdict) PaperVerification {
	return PaperVerification{
		PaperIndex:            v.PaperIndex,
		Title:                 v.Title,
		Link:                  v.Link,
		ClaimedAuthors:        v.ClaimedAuthors,
		ClaimedDate:           v.ClaimedDate,
		AssistantSummary:      v.AssistantSummary,
		ContentFetch:          datatypes.NewJSONType(v.ContentFetch),
		BibliographicMetadata: datatypes.NewJSONType(v.BibliographicMetadata),
		ContentVerification:   datatypes.NewJSONType(v.ContentVerification),
		PaperQuality:          datatypes.NewJSONType(v.PaperQuality),
		SummaryEvaluation:     datatypes.NewJSONType(v.SummaryEvaluation),
		OverallAssessment:     v.OverallAssessment,
		CredibilityScore:      v.CredibilityScore,
		CredibilityNotes:      v.CredibilityNotes,
		OverallQuality:        v.OverallQuality,
		Reused:                v.Reused,
	}
}
