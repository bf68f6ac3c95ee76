package services

import (
	"testing"

	"research-verifier/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJudgment(t *testing.T) {
	base := models.PaperQuality{CredibilityScore: 5, QualityScore: 5}

	tests := []struct {
		name            string
		raw             string
		wantErr         bool
		wantCredibility float64
		wantQuality     float64
	}{
		{"raw object", `{"credibility_score": 8, "quality_score": 7}`, false, 8, 7},
		{"raw with whitespace", "\n  {\"credibility_score\": 9}\n", false, 9, 5},
		{"fenced", "Here you go:\n```json\n{\"credibility_score\": 3, \"quality_score\": 4}\n```\nThanks", false, 3, 4},
		{"fenced without language", "```\n{\"quality_score\": 2}\n```", false, 5, 2},
		{"marker scan", `Sure! My answer is {"credibility_score": 6, "quality_notes": "has } brace"} hope it helps`, false, 6, 5},
		{"not json", "I cannot evaluate this paper.", true, 5, 5},
		{"truncated", `{"credibility_score": 6, "quality_sc`, true, 5, 5},
		{"quoted score", `{"credibility_score": "8", "quality_score": " 6.5 "}`, false, 8, 6.5},
		{"quoted score fenced", "```json\n{\"credibility_score\": \"7\"}\n```", false, 7, 5},
		{"wrong types", `{"credibility_score": "high"}`, true, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeJudgment(tt.raw, `"credibility_score"`, base)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCredibility, got.CredibilityScore)
			assert.Equal(t, tt.wantQuality, got.QualityScore)
		})
	}
}

func TestObjectAroundMarkerPicksOutermost(t *testing.T) {
	raw := `prefix {"content_match": {"matches": true, "issues": ["a {b}"]}, "overall_assessment": "ok"} suffix`
	got, ok := objectAroundMarker(raw, `"content_match"`)
	require.True(t, ok)
	assert.Equal(t, `{"content_match": {"matches": true, "issues": ["a {b}"]}, "overall_assessment": "ok"}`, got)
}

func TestObjectAroundMarkerSkipsObjectsBeforeMarker(t *testing.T) {
	raw := `{"note": 1} then {"content_match": {"matches": false}}`
	got, ok := objectAroundMarker(raw, `"content_match"`)
	require.True(t, ok)
	assert.Equal(t, `{"content_match": {"matches": false}}`, got)
}

func TestMatchingBraceUnbalanced(t *testing.T) {
	assert.Equal(t, -1, matchingBrace(`{"a": {"b": 1}`, 0))
	assert.Equal(t, 12, matchingBrace(`{"a": "}\"}"}`, 0))
}

func TestDecodeJudgmentKeepsFlagsWithQuotedScores(t *testing.T) {
	raw := `{"content_match": {"matches": true, "confidence": "90", "title_match": true, "issues": []},
		"paper_quality": {"credibility_score": "8", "quality_score": 7, "credibility_notes": "cited 8 times"},
		"summary_evaluation": {"accurate": true, "score": "9", "issues": ["ok"]},
		"overall_assessment": "Fine."}`

	got, err := decodeJudgment(raw, `"content_match"`, neutralPaperJudgment)
	require.NoError(t, err)
	assert.True(t, got.ContentMatch.Matches)
	assert.True(t, got.ContentMatch.TitleMatch)
	assert.Equal(t, 90.0, got.ContentMatch.Confidence)
	assert.Equal(t, 8.0, got.PaperQuality.CredibilityScore)
	assert.Equal(t, "cited 8 times", got.PaperQuality.CredibilityNotes)
	assert.Equal(t, 9.0, got.SummaryEvaluation.Score)
	assert.Equal(t, []string{"ok"}, got.SummaryEvaluation.Issues)
	assert.Equal(t, "Fine.", got.OverallAssessment)
}

func TestUnquoteScoresLeavesOtherStrings(t *testing.T) {
	in := `{"notes": "8", "score": 3}`
	assert.Equal(t, in, unquoteScores(in))
	assert.JSONEq(t, `{"notes": "8", "score": 4}`, unquoteScores(`{"notes": "8", "score": "4"}`))
}
