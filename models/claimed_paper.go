package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// LooseString accepts any JSON value and keeps it as text. Assistants are
// not consistent about "authors": ["A", "B"] vs "A, B", [{"name": "A"}] or
// "date": 2021. Decoding never fails.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	*s = LooseString(looseText(data))
	return nil
}

// looseText renders a JSON value as text: lists are joined with ", ",
// objects give their "name" or "title", the value of a single field, or
// their compact JSON.
func looseText(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				if t := looseText(it); t != "" {
					parts = append(parts, t)
				}
			}
			return strings.Join(parts, ", ")
		}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err == nil {
			for _, key := range []string{"name", "title"} {
				if raw, ok := fields[key]; ok {
					if t := looseText(raw); t != "" {
						return t
					}
				}
			}
			if len(fields) == 1 {
				for _, raw := range fields {
					return looseText(raw)
				}
			}
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err == nil {
			return compact.String()
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err == nil {
			return strconv.FormatBool(b)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			if i, err := n.Int64(); err == nil {
				return strconv.FormatInt(i, 10)
			}
			return n.String()
		}
	}
	return string(data)
}

// ClaimedPaper is one paper as the assistant described it. Nothing here has
// been checked.
type ClaimedPaper struct {
	Title   LooseString `json:"title"`
	Authors LooseString `json:"authors"`
	Date    LooseString `json:"date"`
	Type    LooseString `json:"type,omitempty"`
	Link    LooseString `json:"link"`
	Summary LooseString `json:"summary"`
}

// AssistantContent is the structured body of an assistant message.
type AssistantContent struct {
	Text   string         `json:"text"`
	Papers []ClaimedPaper `json:"papers"`
}

// ParseAssistantContent decodes an assistant message body. It reports false
// unless the content is a JSON object carrying both "text" and "papers".
func ParseAssistantContent(content string) (*AssistantContent, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &keys); err != nil {
		return nil, false
	}
	if _, ok := keys["text"]; !ok {
		return nil, false
	}
	if _, ok := keys["papers"]; !ok {
		return nil, false
	}

	var out AssistantContent
	if err := json.Unmarshal(keys["text"], &out.Text); err != nil {
		return nil, false
	}
	if err := json.Unmarshal(keys["papers"], &out.Papers); err != nil {
		return nil, false
	}
	if out.Papers == nil {
		out.Papers = []ClaimedPaper{}
	}
	return &out, true
}
