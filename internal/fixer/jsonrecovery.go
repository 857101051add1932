package fixer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// FixResponse is the normalized shape of the LLM's patch proposal (§4.5).
type FixResponse struct {
	OriginalCode  string
	FixedCode     string
	Description   string
	CommitMessage string
}

// rawFixResponse mirrors FixResponse but leaves original_code/fixed_code
// as json.RawMessage since either may arrive as a string or an array of
// strings (§4.5 Normalization).
type rawFixResponse struct {
	OriginalCode  json.RawMessage `json:"original_code"`
	FixedCode     json.RawMessage `json:"fixed_code"`
	Description   string          `json:"description"`
	CommitMessage string          `json:"commit_message"`
}

// ParseFixResponse implements the four-stage recovery pipeline mandated by
// §4.5, trying each stage in order until one yields a usable object.
func ParseFixResponse(raw string) (FixResponse, error) {
	if fr, ok := tryParse(raw); ok {
		return fr, nil
	}
	if stripped, ok := stripFencedJSON(raw); ok {
		if fr, ok := tryParse(stripped); ok {
			return fr, nil
		}
	}
	if obj, ok := extractBalancedObject(raw); ok {
		if fr, ok := tryParse(obj); ok {
			return fr, nil
		}
		if repaired := repairStringContent(obj); repaired != obj {
			if fr, ok := tryParse(repaired); ok {
				return fr, nil
			}
		}
	}
	if fr, ok := regexExtract(raw); ok {
		return fr, nil
	}
	return FixResponse{}, fmt.Errorf("fixer: could not recover a fix object from LLM response")
}

// tryParse is stage 1 (also reused by later stages once they've produced a
// candidate JSON string).
func tryParse(candidate string) (FixResponse, bool) {
	var rfr rawFixResponse
	if err := json.Unmarshal([]byte(candidate), &rfr); err != nil {
		return FixResponse{}, false
	}
	orig, err1 := flexCode(rfr.OriginalCode)
	fixed, err2 := flexCode(rfr.FixedCode)
	if err1 != nil && err2 != nil {
		return FixResponse{}, false
	}
	return FixResponse{
		OriginalCode:  orig,
		FixedCode:     fixed,
		Description:   rfr.Description,
		CommitMessage: rfr.CommitMessage,
	}, true
}

// flexCode decodes a field that may be a JSON string or an array of
// strings, joining array elements with "\n" (§4.5 Normalization).
func flexCode(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err == nil {
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("fixer: code field is neither string nor []string")
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n?```")

// stripFencedJSON is stage 2: strip a fenced ```json ... ``` code block.
func stripFencedJSON(raw string) (string, bool) {
	m := fencedJSONRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractBalancedObject is the first half of stage 3: locate the first
// '{' and use a depth counter — respecting string boundaries and escape
// characters — to extract a balanced object.
func extractBalancedObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string, only quotes/escapes matter
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// repairStringContent is the second half of stage 3: a string-content
// repair pass escaping bare newlines, dropping carriage returns, and
// escaping bare tabs inside quoted strings, so malformed LLM output with
// literal multi-line code blocks still parses as valid JSON.
func repairStringContent(obj string) string {
	var b strings.Builder
	inString := false
	escaped := false
	for i := 0; i < len(obj); i++ {
		c := obj[i]
		switch {
		case escaped:
			b.WriteByte(c)
			escaped = false
		case c == '\\' && inString:
			b.WriteByte(c)
			escaped = true
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case inString && c == '\n':
			b.WriteString(`\n`)
		case inString && c == '\r':
			// drop bare carriage returns
		case inString && c == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var fieldRes = map[string]*regexp.Regexp{
	"original_code":  regexp.MustCompile(`(?s)"original_code"\s*:\s*"((?:[^"\\]|\\.)*)"`),
	"fixed_code":     regexp.MustCompile(`(?s)"fixed_code"\s*:\s*"((?:[^"\\]|\\.)*)"`),
	"description":    regexp.MustCompile(`(?s)"description"\s*:\s*"((?:[^"\\]|\\.)*)"`),
	"commit_message": regexp.MustCompile(`(?s)"commit_message"\s*:\s*"((?:[^"\\]|\\.)*)"`),
}

// regexExtract is stage 4, the last resort: regex-extract just the four
// named fields, yielding a partial object if at least one code field is
// non-empty.
func regexExtract(raw string) (FixResponse, bool) {
	fr := FixResponse{
		OriginalCode:  extractField(raw, "original_code"),
		FixedCode:     extractField(raw, "fixed_code"),
		Description:   extractField(raw, "description"),
		CommitMessage: extractField(raw, "commit_message"),
	}
	if fr.OriginalCode == "" && fr.FixedCode == "" {
		return FixResponse{}, false
	}
	return fr, true
}

func extractField(raw, field string) string {
	m := fieldRes[field].FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return unescapeJSON(m[1])
}

// unescapeJSON unescapes the JSON escape sequences named in §4.5
// Normalization: \n, \t, \", \\.
func unescapeJSON(s string) string {
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)
	return replacer.Replace(s)
}
