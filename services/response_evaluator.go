package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"research-verifier/models"

	"go.uber.org/zap"
)

const responseJudgeSystemPrompt = "You audit answers of a research assistant against independently verified paper data. " +
	"Answer with a single JSON object only."

var warningTypes = map[string]bool{
	"unsupported_claim": true,
	"fabrication":       true,
	"misrepresentation": true,
	"contradiction":     true,
}

// Turn is one line of the conversation transcript.
type Turn struct {
	Role    string
	Content string
}

// EvaluationInput is everything the response judge sees.
type EvaluationInput struct {
	SystemPrompt string
	History      []Turn
	ResponseText string
	Papers       []models.ClaimedPaper
	Verdicts     []models.Verdict
}

var neutralResponseEvaluation = models.ResponseEvaluation{
	ConfidenceScore:       50,
	ResponseQuality:       models.ResponseQuality{Score: 5},
	AccuracyAssessment:    models.AccuracyAssessment{Score: 5, FactualErrors: []string{}},
	PaperAssessment:       models.PaperAssessment{AvgPaperQuality: 5, Concerns: []string{}},
	HallucinationWarnings: []models.HallucinationWarning{},
}

// failedResponseEvaluation is the fail-soft evaluation: middling confidence,
// optimistic flags and one high-severity warning carrying the reason.
var failedResponseEvaluation = models.ResponseEvaluation{
	ConfidenceScore: 50,
	ResponseQuality: models.ResponseQuality{
		AddressesQuestion:   true,
		ClearAndHelpful:     true,
		FollowsInstructions: true,
		Score:               5,
		Notes:               "Evaluation failed",
	},
	AccuracyAssessment: models.AccuracyAssessment{
		ClaimsSupported:      true,
		SummariesAccurate:    true,
		PapersCitedCorrectly: true,
		FactualErrors:        []string{},
		Score:                5,
		Notes:                "Evaluation failed",
	},
	PaperAssessment: models.PaperAssessment{
		PapersRelevant:    true,
		PapersHighQuality: true,
		AvgPaperQuality:   5,
		Concerns:          []string{},
		Notes:             "Evaluation failed",
	},
}

func evaluationFailure(err error) models.ResponseEvaluation {
	reason := truncateRunes(err.Error(), 100)
	e := failedResponseEvaluation
	e.HallucinationWarnings = []models.HallucinationWarning{{
		Type:        "error",
		Severity:    models.SeverityHigh,
		Description: "Comprehensive evaluation failed",
		Explanation: "Error: " + reason,
	}}
	e.Summary = "Evaluation could not be completed: " + reason
	return e
}

type ResponseEvaluator struct {
	Metrics *Metrics
	Logger  *zap.Logger
}

func NewResponseEvaluator(metrics *Metrics, logger *zap.Logger) *ResponseEvaluator {
	return &ResponseEvaluator{Metrics: metrics, Logger: logger}
}

// Evaluate judges the assistant turn as a whole. It never fails.
func (re *ResponseEvaluator) Evaluate(ctx context.Context, judge *Judge, in EvaluationInput) models.ResponseEvaluation {
	raw, err := judge.Complete(ctx, responseJudgeSystemPrompt, buildEvaluationPrompt(in), 0.3)
	if err != nil {
		re.Metrics.upstreamFailure(stageResponseJudge)
		re.Logger.Warn("Response judge call failed", zap.Error(err))
		return evaluationFailure(err)
	}

	eval, err := decodeJudgment(raw, `"confidence_score"`, neutralResponseEvaluation)
	if err != nil {
		re.Metrics.upstreamFailure(stageResponseJudge)
		re.Logger.Warn("Response judge answer unparsable", zap.Error(err), zap.Int("answer_len", len(raw)))
		return evaluationFailure(err)
	}
	return normalizeEvaluation(eval)
}

func normalizeEvaluation(e models.ResponseEvaluation) models.ResponseEvaluation {
	e.ConfidenceScore = roundConfidence(e.ConfidenceScore)
	e.ResponseQuality.Score = clamp(e.ResponseQuality.Score, 1, 10)
	e.AccuracyAssessment.Score = clamp(e.AccuracyAssessment.Score, 1, 10)
	e.PaperAssessment.AvgPaperQuality = clamp(e.PaperAssessment.AvgPaperQuality, 1, 10)
	if e.AccuracyAssessment.FactualErrors == nil {
		e.AccuracyAssessment.FactualErrors = []string{}
	}
	if e.PaperAssessment.Concerns == nil {
		e.PaperAssessment.Concerns = []string{}
	}

	warnings := make([]models.HallucinationWarning, 0, len(e.HallucinationWarnings))
	for _, w := range e.HallucinationWarnings {
		w.Type = strings.ToLower(strings.TrimSpace(w.Type))
		if !warningTypes[w.Type] {
			w.Type = "unsupported_claim"
		}
		switch sev := strings.ToLower(strings.TrimSpace(w.Severity)); sev {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
			w.Severity = sev
		default:
			w.Severity = models.SeverityMedium
		}
		warnings = append(warnings, w)
	}
	e.HallucinationWarnings = warnings
	return e
}

// roundConfidence clamps to [0,100] with one decimal.
func roundConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return math.Round(clamp(v, 0, 100)*10) / 10
}

func buildEvaluationPrompt(in EvaluationInput) string {
	var b strings.Builder
	b.WriteString("Evaluate the research assistant's answer below.\n\n")
	b.WriteString("SYSTEM INSTRUCTIONS THE ASSISTANT WAS GIVEN:\n")
	b.WriteString(in.SystemPrompt)
	b.WriteString("\n\nCONVERSATION SO FAR:\n")
	b.WriteString(formatTranscript(in.History))
	b.WriteString("\n\nANSWER UNDER REVIEW:\n")
	b.WriteString(in.ResponseText)
	b.WriteString("\n\nPAPERS THE ASSISTANT CITED:\n")
	b.WriteString(indentJSON(in.Papers))
	b.WriteString("\n\nOUR VERIFICATION OF THOSE PAPERS:\n")
	b.WriteString(indentJSON(in.Verdicts))
	b.WriteString(`

Consider:
1. Response quality: does it answer the user's question clearly, and does it follow the system instructions?
2. Accuracy: are the claims backed by the verified papers, do the summaries match the verified content, are papers cited correctly, are there factual errors?
3. Papers: are the chosen papers relevant, and are they good sources according to the verification data?
4. Hallucinations: unsupported claims, fabricated or exaggerated facts, misrepresented papers, contradictions with earlier turns.
5. Overall: a confidence score from 0 to 100 for the accuracy of the answer.

Answer with exactly this JSON structure:
{
  "confidence_score": 0-100,
  "response_quality": {
    "addresses_question": true|false,
    "clear_and_helpful": true|false,
    "follows_instructions": true|false,
    "score": 1-10,
    "notes": "..."
  },
  "accuracy_assessment": {
    "claims_supported": true|false,
    "summaries_accurate": true|false,
    "papers_cited_correctly": true|false,
    "factual_errors": ["..."],
    "score": 1-10,
    "notes": "..."
  },
  "paper_assessment": {
    "papers_relevant": true|false,
    "papers_high_quality": true|false,
    "avg_paper_quality": 1-10,
    "concerns": ["..."],
    "notes": "..."
  },
  "hallucination_warnings": [
    {
      "type": "unsupported_claim|fabrication|misrepresentation|contradiction",
      "severity": "low|medium|high",
      "description": "what may be hallucinated",
      "explanation": "why it is a concern"
    }
  ],
  "summary": "3-5 sentences on the main findings"
}`)
	return b.String()
}

// formatTranscript renders turns as "ROLE: content" lines.
func formatTranscript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(t.Role), t.Content))
	}
	return strings.Join(lines, "\n")
}
