package models

import "time"

// FileStatus is the outcome of ingesting one source file.
type FileStatus string

const (
	FileDone        FileStatus = "done"
	FileSkipped     FileStatus = "skipped"
	FileQuarantined FileStatus = "quarantined"
	FileFailed      FileStatus = "failed"
)

// Error kinds counted in a FileLedger.
const (
	KindMissingField         = "missing_field"
	KindInvalidValue         = "invalid_value"
	KindUnknownCode          = "unknown_code"
	KindInvariantViolation   = "invariant_violation"
	KindUnexpectedAttributes = "unexpected_attributes"
	KindUnclassifiableSource = "unclassifiable_source"
	KindIntegrityMismatch    = "integrity_mismatch"
	KindCorruptArchive       = "corrupt_archive"
	KindMalformedDocument    = "malformed_document"
	KindFetchFailed          = "fetch_failed"
)

// FileLedger is the per-file error ledger of an ingestion run.
//
// Ingested and Rejected count records; ByKind breaks Rejected down by error
// kind and also records the file-level failure kind, if any.
//
// swagger:model FileLedger
type FileLedger struct {
	RunID       string         `json:"run_id"`
	FileName    string         `json:"file_name"`
	URL         string         `json:"url"`
	Source      Source         `json:"source"`
	FileType    FileType       `json:"file_type"`
	PublishedAt time.Time      `json:"published_at"`
	ArchiveHash string         `json:"archive_hash"`
	Members     int            `json:"members"`
	Ingested    int            `json:"ingested"`
	Rejected    int            `json:"rejected"`
	ByKind      map[string]int `json:"by_kind,omitempty"`
	Status      FileStatus     `json:"status"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// Reject counts one rejected record of the given kind.
func (l *FileLedger) Reject(kind string) {
	if l.ByKind == nil {
		l.ByKind = make(map[string]int)
	}
	l.ByKind[kind]++
	l.Rejected++
}

// Fail marks the whole file as failed with kind and err.
func (l *FileLedger) Fail(kind string, err error) {
	if l.ByKind == nil {
		l.ByKind = make(map[string]int)
	}
	l.ByKind[kind]++
	l.Status = FileFailed
	if err != nil {
		l.Error = err.Error()
	}
}

// RejectRate is the share of defective records among all records seen; 0
// for an empty file. Records rejected as unclassifiable (cancellations) are
// well-formed and left out of both sides of the ratio.
func (l *FileLedger) RejectRate() float64 {
	skipped := l.ByKind[KindUnclassifiableSource]
	total := l.Ingested + l.Rejected - skipped
	if total <= 0 {
		return 0
	}
	return float64(l.Rejected-skipped) / float64(total)
}
