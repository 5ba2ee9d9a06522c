package domain

import "fmt"

// Origin identifies where a résumé document came from.
type Origin string

// Document origins. Spidered documents carry inline metadata JSON;
// uploaded documents are stored as PDF blobs.
const (
	OriginUpload       Origin = "upload"
	OriginSpiderBoss   Origin = "boss"
	OriginSpiderLiepin Origin = "liepin"
)

// Inline reports whether the document text travels inline with the
// document record instead of living in blob storage.
func (o Origin) Inline() bool { return o == OriginSpiderBoss }

// AnalyzeStatus is the per-document analysis progress flag.
type AnalyzeStatus int

// Analysis status values. Transitions only move forward:
// Unanalyzed -> InProgress -> Done. Nothing in the pipeline reverts a
// status; recovery of stuck documents is an operator action.
const (
	StatusUnanalyzed AnalyzeStatus = -1
	StatusInProgress AnalyzeStatus = 0
	StatusDone       AnalyzeStatus = 1
)

// String returns a human-readable status name.
func (s AnalyzeStatus) String() string {
	switch s {
	case StatusUnanalyzed:
		return "unanalyzed"
	case StatusInProgress:
		return "in_progress"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Document is one candidate résumé as seen by the analysis pipeline.
// Everything except AnalyzeStatus is owned by the upstream store and
// reaches us read-only through the callback interface.
type Document struct {
	ID            string        `json:"cv_id"`
	Origin        Origin        `json:"origin"`
	MetaJSON      string        `json:"meta_json,omitempty"`
	BlobPath      string        `json:"gcs_path,omitempty"`
	AnalyzeStatus AnalyzeStatus `json:"analyze_status"`
}

// Content returns the inline text for spidered documents and the blob
// reference for uploaded ones. The generative provider resolves blob
// references itself.
func (d Document) Content() string {
	if d.Origin.Inline() {
		return d.MetaJSON
	}
	return d.BlobPath
}

// StatusUpdate is one element of a batched status change.
type StatusUpdate struct {
	DocumentID string        `json:"cv_id"`
	Status     AnalyzeStatus `json:"analyze_status"`
}

// Scope selects the documents one analysis task operates on: a search
// task within a job, plus an optional fetch quota (0 means all
// unanalyzed documents in scope).
type Scope struct {
	TaskID string `json:"search_task_id"`
	JobID  string `json:"jd_id"`
	Quota  int    `json:"quota,omitempty"`
}
