package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"research-verifier/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const paperJudgeSystemPrompt = "You verify research papers cited by an AI assistant. Judge them from the fetched page, " +
	"the bibliographic record and what the assistant claimed. Answer with a single JSON object only."

// ContentResolver fetches the page behind a claimed link.
type ContentResolver interface {
	Resolve(ctx context.Context, link string) models.ContentFetchResult
}

// MetadataLookup finds the bibliographic record of a claimed paper.
type MetadataLookup interface {
	Lookup(ctx context.Context, paper models.ClaimedPaper) models.BibliographicRecord
}

// neutralPaperJudgment is what fields missing from the model's answer fall back to.
var neutralPaperJudgment = models.PaperJudgment{
	ContentMatch:      models.ContentMatch{Issues: []string{}},
	PaperQuality:      models.PaperQuality{CredibilityScore: 5, QualityScore: 5},
	SummaryEvaluation: models.SummaryEvaluation{Score: 5, Issues: []string{}},
}

// failedPaperJudgment is the fail-soft verdict shape shared by every judge
// failure; only the reason differs.
var failedPaperJudgment = models.PaperJudgment{
	ContentMatch: models.ContentMatch{
		Matches:     false,
		Confidence:  0,
		Explanation: "LLM evaluation failed",
	},
	PaperQuality: models.PaperQuality{
		CredibilityScore: 5,
		QualityScore:     5,
		CredibilityNotes: "Evaluation failed",
		QualityNotes:     "Evaluation failed",
	},
	SummaryEvaluation: models.SummaryEvaluation{
		Accurate: false,
		Score:    5,
		Issues:   []string{"Evaluation failed"},
		Notes:    "Could not evaluate summary",
	},
}

func paperJudgmentFailure(err error) models.PaperJudgment {
	reason := truncateRunes(err.Error(), 100)
	j := failedPaperJudgment
	j.ContentMatch.Issues = []string{"Evaluation error: " + reason}
	j.OverallAssessment = "Paper evaluation failed: " + reason
	return j
}

// PaperVerifier produces the verdict for one claimed paper: link fetch and
// metadata lookup in parallel, then one judge call over both.
type PaperVerifier struct {
	Resolver ContentResolver
	Metadata MetadataLookup
	Metrics  *Metrics
	Logger   *zap.Logger
}

func NewPaperVerifier(resolver ContentResolver, metadata MetadataLookup, metrics *Metrics, logger *zap.Logger) *PaperVerifier {
	return &PaperVerifier{Resolver: resolver, Metadata: metadata, Metrics: metrics, Logger: logger}
}

// Verify never fails; upstream problems end up inside the verdict.
func (pv *PaperVerifier) Verify(ctx context.Context, judge *Judge, paper models.ClaimedPaper, index int) models.Verdict {
	log := pv.Logger.With(zap.Int("paper_index", index), zap.String("link", string(paper.Link)))

	var fetched models.ContentFetchResult
	var record models.BibliographicRecord
	var g errgroup.Group
	g.Go(func() error {
		fetched = pv.Resolver.Resolve(ctx, string(paper.Link))
		return nil
	})
	g.Go(func() error {
		record = pv.Metadata.Lookup(ctx, paper)
		return nil
	})
	_ = g.Wait()

	if !fetched.Success {
		pv.Metrics.upstreamFailure(stageFetch)
		log.Debug("Link could not be resolved", zap.String("reason", fetched.Error))
	}
	if !record.Success {
		pv.Metrics.upstreamFailure(stageMetadata)
		log.Debug("No bibliographic record", zap.String("reason", record.Error))
	}

	judgment := pv.judge(ctx, judge, paper, fetched, record, log)

	return models.Verdict{
		PaperIndex:       index,
		Title:            string(paper.Title),
		Link:             string(paper.Link),
		ClaimedAuthors:   string(paper.Authors),
		ClaimedDate:      string(paper.Date),
		AssistantSummary: string(paper.Summary),
		VerdictDetails: models.VerdictDetails{
			ContentFetch:          fetched,
			BibliographicMetadata: record,
			ContentVerification:   judgment.ContentMatch,
			PaperQuality:          judgment.PaperQuality,
			SummaryEvaluation:     judgment.SummaryEvaluation,
			OverallAssessment:     judgment.OverallAssessment,
			CredibilityScore:      judgment.PaperQuality.CredibilityScore,
			CredibilityNotes:      judgment.PaperQuality.CredibilityNotes,
			OverallQuality:        judgment.PaperQuality.QualityScore,
		},
	}
}

func (pv *PaperVerifier) judge(ctx context.Context, judge *Judge, paper models.ClaimedPaper,
	fetched models.ContentFetchResult, record models.BibliographicRecord, log *zap.Logger) models.PaperJudgment {

	raw, err := judge.Complete(ctx, paperJudgeSystemPrompt, buildPaperPrompt(paper, fetched, record), 0.1)
	if err != nil {
		pv.Metrics.upstreamFailure(stagePaperJudge)
		log.Warn("Paper judge call failed", zap.Error(err))
		return paperJudgmentFailure(err)
	}

	judgment, err := decodeJudgment(raw, `"content_match"`, neutralPaperJudgment)
	if err != nil {
		pv.Metrics.upstreamFailure(stagePaperJudge)
		log.Warn("Paper judge answer unparsable", zap.Error(err), zap.Int("answer_len", len(raw)))
		return paperJudgmentFailure(err)
	}

	judgment.ContentMatch.Confidence = clamp(judgment.ContentMatch.Confidence, 0, 100)
	judgment.PaperQuality.CredibilityScore = clamp(judgment.PaperQuality.CredibilityScore, 1, 10)
	judgment.PaperQuality.QualityScore = clamp(judgment.PaperQuality.QualityScore, 1, 10)
	judgment.SummaryEvaluation.Score = clamp(judgment.SummaryEvaluation.Score, 1, 10)
	if judgment.ContentMatch.Issues == nil {
		judgment.ContentMatch.Issues = []string{}
	}
	if judgment.SummaryEvaluation.Issues == nil {
		judgment.SummaryEvaluation.Issues = []string{}
	}
	return judgment
}

func buildPaperPrompt(paper models.ClaimedPaper, fetched models.ContentFetchResult, record models.BibliographicRecord) string {
	summary := string(paper.Summary)
	if summary == "" {
		summary = "No summary provided"
	}

	var b strings.Builder
	b.WriteString("Verify the research paper below.\n\n")
	b.WriteString("PAPER AS CLAIMED BY THE ASSISTANT:\n")
	fmt.Fprintf(&b, "Title: %s\nAuthors: %s\nYear: %s\nLink: %s\nAssistant's summary: %s\n\n",
		paper.Title, paper.Authors, paper.Date, paper.Link, summary)
	b.WriteString("CONTENT FETCHED FROM THE LINK:\n")
	b.WriteString(indentJSON(fetched))
	b.WriteString("\n\nBIBLIOGRAPHIC RECORD (citations, authors, venue):\n")
	b.WriteString(indentJSON(record))
	b.WriteString(`

Assess:
1. Content match: does the fetched content belong to the claimed paper (title, authors, date)? Is it an academic work at all?
2. Quality and credibility: from citation counts, author metrics and venue, how credible and how good is the paper?
3. Summary accuracy: does the assistant's summary reflect the paper, or does it misrepresent it?

If the fetch or the bibliographic lookup failed, say so and judge with what is available.

Answer with exactly this JSON structure:
{
  "content_match": {
    "matches": true|false,
    "confidence": 0-100,
    "title_match": true|false,
    "author_match": true|false,
    "date_match": true|false,
    "issues": ["..."],
    "explanation": "short explanation"
  },
  "paper_quality": {
    "credibility_score": 1-10,
    "quality_score": 1-10,
    "credibility_notes": "...",
    "quality_notes": "..."
  },
  "summary_evaluation": {
    "accurate": true|false,
    "score": 1-10,
    "issues": ["..."],
    "notes": "..."
  },
  "overall_assessment": "2-3 sentences"
}`)
	return b.String()
}

func indentJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
