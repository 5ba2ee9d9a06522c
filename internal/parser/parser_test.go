package parser

import (
	"errors"
	"testing"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

const (
	hexKey  = "aabbccddeeff00112233445566778899"
	hexKey2 = "00112233445566778899aabbccddeeff"
	uuidKey = "123e4567-e89b-12d3-a456-426614174000"
)

func TestAnalyses_DirectFencedArray(t *testing.T) {
	raw := "```json\n[" +
		`{"key": "` + hexKey + `", "result": {"suitability": 72, "reason": "solid match", "advantages": ["go", "redis"], "disadvantages": ["no k8s"]}}` +
		"]\n```"

	p := New(0)
	records, err := p.Analyses(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.DocumentID != hexKey || r.Suitability != 72 || r.Reason != "solid match" {
		t.Errorf("unexpected record: %+v", r)
	}
	if len(r.Advantages) != 2 || len(r.Disadvantages) != 1 {
		t.Errorf("unexpected lists: %+v", r)
	}
}

func TestAnalyses_TruncatedArrayRecoversCompleteObjects(t *testing.T) {
	// Output-token limit cut the array mid-object: the two complete
	// objects must survive, the torn one must not.
	raw := `[
	{ "key": "` + hexKey + `", "result": { "suitability": 80, "reason": "a" } },
	{ "key": "` + hexKey2 + `", "result": { "suitability": 55, "reason": "b" } },
	{ "key": "` + uuidKey + `", "result": { "suitability": 41, "reas`

	p := New(0)
	records, err := p.Analyses(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 recovered records, got %d", len(records))
	}
	if records[0].DocumentID != hexKey || records[1].DocumentID != hexKey2 {
		t.Errorf("wrong records recovered: %+v", records)
	}
}

func TestAnalyses_DropsMalformedKeys(t *testing.T) {
	raw := `[
	{"key": "not-a-valid-id", "result": {"suitability": 90, "reason": "x"}},
	{"key": "` + uuidKey + `", "result": {"suitability": 60, "reason": "y"}}
	]`

	p := New(0)
	records, err := p.Analyses(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].DocumentID != uuidKey {
		t.Errorf("expected only the uuid-shaped key to survive, got %+v", records)
	}
}

func TestAnalyses_SingleQuoteNormalization(t *testing.T) {
	raw := `[{'key': '` + hexKey + `', 'result': {'suitability': 45, 'reason': 'ok'}}]`

	p := New(0)
	records, err := p.Analyses(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Suitability != 45 {
		t.Errorf("requoted parse failed: %+v", records)
	}
}

func TestAnalyses_EmptyArrayIsNotAFailure(t *testing.T) {
	p := New(0)

	records, err := p.Analyses("```json\n[]\n```")
	if err != nil {
		t.Fatalf("legitimate empty result reported as error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestAnalyses_GarbageIsAParseFailure(t *testing.T) {
	p := New(0)

	_, err := p.Analyses("I am sorry, I cannot evaluate these resumes.")
	if !errors.Is(err, domain.ErrParseFailure) {
		t.Fatalf("expected ErrParseFailure, got %v", err)
	}
}

func TestAnalyses_EmptyInput(t *testing.T) {
	p := New(0)

	records, err := p.Analyses("   ")
	if err != nil || records != nil {
		t.Errorf("blank input: records=%v err=%v", records, err)
	}
}

func TestMatches_ThresholdBoundaryInclusive(t *testing.T) {
	raw := `[
	{"key": "` + hexKey + `", "suitability": 30, "reason": "at threshold"},
	{"key": "` + hexKey2 + `", "suitability": 10, "reason": "below"},
	{"key": "not-a-valid-id", "suitability": 95, "reason": "bad id"}
	]`

	p := New(30)
	matches, err := p.Matches(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly the boundary record, got %+v", matches)
	}
	if matches[0].DocumentID != hexKey || matches[0].Suitability != 30 {
		t.Errorf("unexpected match: %+v", matches[0])
	}
}

func TestMatches_TruncatedResponse(t *testing.T) {
	raw := `[
	{"key": "` + hexKey + `", "suitability": 66, "reason": "good"},
	{"key": "` + hexKey2 + `", "suitability": 4`

	p := New(30)
	matches, err := p.Matches(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].DocumentID != hexKey {
		t.Errorf("expected the complete object only, got %+v", matches)
	}
}

func TestMatches_AllBelowThresholdIsNotAFailure(t *testing.T) {
	raw := `[{"key": "` + hexKey + `", "suitability": 5, "reason": "weak"}]`

	p := New(30)
	matches, err := p.Matches(raw)
	if err != nil {
		t.Fatalf("threshold drop reported as error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty matches, got %+v", matches)
	}
}

func TestAbstracts(t *testing.T) {
	raw := "```json\n[" +
		`{"key": "` + hexKey + `", "info": {"work_years": 3.5, "zone": "Shenzhen"}, "keywords": ["golang", "redis", "grpc"]},` +
		`{"key": "bogus", "info": {}, "keywords": ["x"]}` +
		"]\n```"

	p := New(0)
	items, err := p.Abstracts(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 abstract, got %d", len(items))
	}
	if items[0].Key != hexKey || len(items[0].Keywords) != 3 {
		t.Errorf("unexpected abstract: %+v", items[0])
	}
	if items[0].Info["zone"] != "Shenzhen" {
		t.Errorf("info lost: %+v", items[0].Info)
	}
}

func TestParseSummary(t *testing.T) {
	raw := "Job summary\nTitle: Backend Engineer\nDuties: build pipelines\n" +
		"---split---\n```json\n{\"keyword_summary\": \"backend golang redis pipelines\"}\n```"

	summary, keyword, err := ParseSummary(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keyword != "backend golang redis pipelines" {
		t.Errorf("keyword summary = %q", keyword)
	}
	if summary == "" || summary[:11] != "Job summary" {
		t.Errorf("summary = %q", summary)
	}
}

func TestParseSummary_MissingMarker(t *testing.T) {
	if _, _, err := ParseSummary("just a summary, no marker"); !errors.Is(err, domain.ErrParseFailure) {
		t.Errorf("expected ErrParseFailure, got %v", err)
	}
}

func TestParseSummary_BadKeywordJSON(t *testing.T) {
	if _, _, err := ParseSummary("summary ---split--- not json"); !errors.Is(err, domain.ErrParseFailure) {
		t.Errorf("expected ErrParseFailure, got %v", err)
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{hexKey, true},
		{uuidKey, true},
		{"not-a-valid-id", false},
		{"", false},
		{"zzbbccddeeff00112233445566778899", false},
		{"a-b-c-d", false},
		{"a-b-c-d-e", true},
	}
	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
