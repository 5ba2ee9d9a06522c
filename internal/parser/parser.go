// Package parser converts raw generative-model output into validated
// structured records. The provider is untrusted: responses arrive
// fenced, truncated mid-array, single-quoted, or with hallucinated
// document ids, and each case degrades instead of failing the batch.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

// DefaultSuitabilityThreshold is the minimum suitability a filter
// record needs to survive, boundary inclusive.
const DefaultSuitabilityThreshold = 30

var (
	hexKeyPattern  = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	uuidKeyPattern = regexp.MustCompile(`^\w+-\w+-\w+-\w+-\w+$`)

	// Salvage patterns matching one complete object at a time. Used when
	// the array as a whole does not decode, typically because the
	// response was cut at the output-token limit.
	analysisObjPattern = regexp.MustCompile(`(?s)\{\s*"key".*?"result"\s*:\s*\{.*?\}\s*\}`)
	filterObjPattern   = regexp.MustCompile(`\{[^{}]*"key"[^{}]*\}`)
	abstractObjPattern = regexp.MustCompile(`(?s)\{\s*"key".*?"keywords"\s*:\s*\[.*?\]\s*\}`)
)

// Parser validates and thresholds model records.
type Parser struct {
	threshold int
}

// New creates a parser with the given filter suitability threshold.
// Zero or negative falls back to DefaultSuitabilityThreshold.
func New(threshold int) *Parser {
	if threshold <= 0 {
		threshold = DefaultSuitabilityThreshold
	}
	return &Parser{threshold: threshold}
}

// analysisItem is the wire shape of one analysis record.
type analysisItem struct {
	Key    string `json:"key"`
	Result struct {
		Suitability   int      `json:"suitability"`
		Reason        string   `json:"reason"`
		Advantages    []string `json:"advantages"`
		Disadvantages []string `json:"disadvantages"`
	} `json:"result"`
}

// filterItem is the wire shape of one filter record.
type filterItem struct {
	Key         string `json:"key"`
	Suitability int    `json:"suitability"`
	Reason      string `json:"reason"`
}

// Analyses parses an analysis response. Records with ids that are not
// document-id shaped are dropped silently.
func (p *Parser) Analyses(raw string) ([]domain.AnalysisRecord, error) {
	items, err := decodeArray[analysisItem](raw, analysisObjPattern)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AnalysisRecord, 0, len(items))
	for _, it := range items {
		if !ValidKey(it.Key) {
			continue
		}
		records = append(records, domain.AnalysisRecord{
			DocumentID:    it.Key,
			Suitability:   it.Result.Suitability,
			Reason:        it.Result.Reason,
			Advantages:    it.Result.Advantages,
			Disadvantages: it.Result.Disadvantages,
		})
	}
	return records, nil
}

// Matches parses a filter response and applies the suitability
// threshold, boundary inclusive.
func (p *Parser) Matches(raw string) ([]domain.FilterMatch, error) {
	items, err := decodeArray[filterItem](raw, filterObjPattern)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.FilterMatch, 0, len(items))
	for _, it := range items {
		if !ValidKey(it.Key) || it.Suitability < p.threshold {
			continue
		}
		matches = append(matches, domain.FilterMatch{
			DocumentID:  it.Key,
			Suitability: it.Suitability,
			Reason:      it.Reason,
		})
	}
	return matches, nil
}

// Abstracts parses a résumé-abstract response.
func (p *Parser) Abstracts(raw string) ([]domain.Abstract, error) {
	items, err := decodeArray[domain.Abstract](raw, abstractObjPattern)
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	for _, it := range items {
		if !ValidKey(it.Key) {
			continue
		}
		kept = append(kept, it)
	}
	return kept, nil
}

// ParseSummary splits a job-summary response into the long summary and
// the one-line keyword summary. The model is instructed to separate the
// two with a literal ---split--- marker and fence the keyword part.
func ParseSummary(raw string) (summary, keywordSummary string, err error) {
	head, tail, found := strings.Cut(raw, "---split---")
	if !found {
		return "", "", fmt.Errorf("missing split marker: %w", domain.ErrParseFailure)
	}

	var keyword struct {
		KeywordSummary string `json:"keyword_summary"`
	}
	if jsonErr := json.Unmarshal([]byte(StripFences(tail)), &keyword); jsonErr != nil {
		return "", "", fmt.Errorf("keyword summary: %w", domain.ErrParseFailure)
	}
	if keyword.KeywordSummary == "" {
		return "", "", fmt.Errorf("empty keyword summary: %w", domain.ErrParseFailure)
	}

	return strings.TrimSpace(head), keyword.KeywordSummary, nil
}

// decodeArray applies the ordered fallback chain: direct parse of the
// unfenced text, a requoted retry when the payload leans on single
// quotes, then per-object salvage. Individually broken objects are
// dropped; zero salvaged objects from a non-empty response is a parse
// failure, distinct from a legitimately empty result array.
func decodeArray[T any](raw string, objPattern *regexp.Regexp) ([]T, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	cleaned := StripFences(raw)

	var items []T
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, nil
	}

	if strings.Contains(cleaned, "'") {
		requoted := strings.ReplaceAll(cleaned, "'", `"`)
		if err := json.Unmarshal([]byte(requoted), &items); err == nil {
			return items, nil
		}
	}

	items = nil
	for _, m := range objPattern.FindAllString(raw, -1) {
		var it T
		if err := json.Unmarshal([]byte(m), &it); err != nil {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, domain.ErrParseFailure
	}
	return items, nil
}

// StripFences removes markdown code-fence markers.
func StripFences(raw string) string {
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	return strings.TrimSpace(raw)
}

// ValidKey reports whether key has a document-id shape: 32 hex
// characters or five hyphen-separated groups. The provider occasionally
// hallucinates ids; anything else is discarded upstream.
func ValidKey(key string) bool {
	return hexKeyPattern.MatchString(key) || uuidKeyPattern.MatchString(key)
}
