package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// extractionResult is the decoded model output with prices already coerced
// to numbers.
type extractionResult struct {
	Title         string
	Price         float64
	OriginalPrice float64
	Store         string
	Category      string
}

type rawResult struct {
	Title         string          `json:"title"`
	Price         json.RawMessage `json:"price"`
	OriginalPrice json.RawMessage `json:"original_price"`
	Store         string          `json:"store"`
	Category      string          `json:"category"`
}

var (
	salvageTitleRe    = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	salvagePriceRe    = regexp.MustCompile(`"price"\s*:\s*"?([0-9][0-9.,]*)"?`)
	salvageOrigRe     = regexp.MustCompile(`"original_price"\s*:\s*"?([0-9][0-9.,]*)"?`)
	salvageStoreRe    = regexp.MustCompile(`"store"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	salvageCategoryRe = regexp.MustCompile(`"category"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// decodeResult parses the model's JSON output. Structured output mode makes
// valid JSON the common case, but responses still occasionally arrive inside
// markdown fences or with trailing commentary, so a strict decode is followed
// by a regex salvage pass before giving up.
func decodeResult(text string) (extractionResult, error) {
	jsonStr := stripFences(text)

	var raw rawResult
	if err := json.Unmarshal([]byte(jsonStr), &raw); err == nil {
		return extractionResult{
			Title:         strings.TrimSpace(raw.Title),
			Price:         coerceNumber(raw.Price),
			OriginalPrice: coerceNumber(raw.OriginalPrice),
			Store:         strings.TrimSpace(raw.Store),
			Category:      strings.TrimSpace(raw.Category),
		}, nil
	}

	return salvageResult(jsonStr)
}

// stripFences removes markdown code fences the model sometimes wraps its
// JSON in.
func stripFences(text string) string {
	jsonStr := strings.TrimSpace(text)
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")
	return strings.TrimSpace(jsonStr)
}

// coerceNumber accepts a price as either a JSON number or a quoted string.
// The schema asks for dot-decimal strings but the model intermittently
// answers with numbers or Turkish comma decimals.
func coerceNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return nonNegative(num)
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0
	}
	return parseNumberString(str)
}

func parseNumberString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return nonNegative(v)
	}
	// Comma decimal, e.g. "1299,90".
	if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return nonNegative(v)
	}
	return 0
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// salvageResult pulls individual fields out of malformed JSON with regexes.
// It succeeds if at least a title or price can be recovered.
func salvageResult(jsonStr string) (extractionResult, error) {
	var result extractionResult

	if m := salvageTitleRe.FindStringSubmatch(jsonStr); m != nil {
		result.Title = strings.TrimSpace(unescapeJSONString(m[1]))
	}
	if m := salvagePriceRe.FindStringSubmatch(jsonStr); m != nil {
		result.Price = parseNumberString(m[1])
	}
	if m := salvageOrigRe.FindStringSubmatch(jsonStr); m != nil {
		result.OriginalPrice = parseNumberString(m[1])
	}
	if m := salvageStoreRe.FindStringSubmatch(jsonStr); m != nil {
		result.Store = strings.TrimSpace(unescapeJSONString(m[1]))
	}
	if m := salvageCategoryRe.FindStringSubmatch(jsonStr); m != nil {
		result.Category = strings.TrimSpace(unescapeJSONString(m[1]))
	}

	if result.Title == "" && result.Price == 0 {
		return result, fmt.Errorf("no usable fields in response")
	}
	return result, nil
}

func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
