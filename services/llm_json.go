package services

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var errUnparsableJudgment = errors.New("LLM output is not a parsable JSON object")

var fencedJSONRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// jsonCandidate extracts one candidate JSON object from model output.
type jsonCandidate func(raw, marker string) (string, bool)

// scoreKeys are the numeric fields of the judge answers. Models sometimes
// quote them ("8"); those strings are turned back into numbers.
var scoreKeys = map[string]bool{
	"confidence":        true,
	"confidence_score":  true,
	"credibility_score": true,
	"quality_score":     true,
	"score":             true,
	"avg_paper_quality": true,
}

// judgmentCandidates are tried in order until one decodes.
var judgmentCandidates = []jsonCandidate{
	wholeObject,
	fencedObject,
	objectAroundMarker,
}

// decodeJudgment decodes the first candidate object in raw over a copy of
// base, so fields the model left out keep their neutral values.
func decodeJudgment[T any](raw, marker string, base T) (T, error) {
	for _, candidate := range judgmentCandidates {
		text, ok := candidate(raw, marker)
		if !ok {
			continue
		}
		out := base
		if err := json.Unmarshal([]byte(unquoteScores(text)), &out); err == nil {
			return out, nil
		}
	}
	return base, errUnparsableJudgment
}

func wholeObject(raw, _ string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

func fencedObject(raw, _ string) (string, bool) {
	m := fencedJSONRE.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], json.Valid([]byte(m[1]))
}

// objectAroundMarker finds the outermost balanced {...} that contains the
// marker key and is valid JSON.
func objectAroundMarker(raw, marker string) (string, bool) {
	at := strings.Index(raw, marker)
	if at < 0 {
		return "", false
	}
	for start := 0; start < at; start++ {
		if raw[start] != '{' {
			continue
		}
		end := matchingBrace(raw, start)
		if end < at {
			continue
		}
		if span := raw[start : end+1]; json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

// matchingBrace returns the index of the brace closing raw[open], skipping
// braces inside JSON strings, or -1.
func matchingBrace(raw string, open int) int {
	depth := 0
	inString, escaped := false, false
	for i := open; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// unquoteScores rewrites numeric strings under scoreKeys as numbers. Text
// that is not valid JSON, or needs no change, is returned as is.
func unquoteScores(text string) string {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return text
	}
	if !unquoteScoresIn(v) {
		return text
	}
	out, err := json.Marshal(v)
	if err != nil {
		return text
	}
	return string(out)
}

func unquoteScoresIn(v any) bool {
	changed := false
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if str, ok := val.(string); ok && scoreKeys[k] {
				f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
				if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
					t[k] = f
					changed = true
				}
				continue
			}
			if unquoteScoresIn(val) {
				changed = true
			}
		}
	case []any:
		for _, val := range t {
			if unquoteScoresIn(val) {
				changed = true
			}
		}
	}
	return changed
}
