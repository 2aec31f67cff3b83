package dto

import (
	"time"

	"github.com/guttosm/firdspulse/internal/domain/models"
)

// IngestionResponse is one ledger entry of GET /api/v1/ingestions.
type IngestionResponse struct {
	ArchiveHash string         `json:"archive_hash" example:"9e107d9d372bb6826bd81d3542a419d6"`
	RunID       string         `json:"run_id"`
	FileName    string         `json:"file_name" example:"DLTINS_20250204_01of01.zip"`
	Source      string         `json:"source" example:"ESMA"`
	FileType    string         `json:"file_type" example:"DLTINS"`
	PublishedAt time.Time      `json:"published_at"`
	Members     int            `json:"members" example:"1"`
	Ingested    int            `json:"ingested" example:"120345"`
	Rejected    int            `json:"rejected" example:"12"`
	ByKind      map[string]int `json:"by_kind,omitempty"`
	Status      string         `json:"status" example:"done"`
	Error       string         `json:"error,omitempty"`
	DurationMs  int64          `json:"duration_ms" example:"5400"`
}

// IngestionListResponse wraps the ledger list.
type IngestionListResponse struct {
	Count int                 `json:"count" example:"1"`
	Items []IngestionResponse `json:"items"`
}

func NewIngestionResponse(l models.FileLedger) IngestionResponse {
	return IngestionResponse{
		ArchiveHash: l.ArchiveHash,
		RunID:       l.RunID,
		FileName:    l.FileName,
		Source:      string(l.Source),
		FileType:    string(l.FileType),
		PublishedAt: l.PublishedAt,
		Members:     l.Members,
		Ingested:    l.Ingested,
		Rejected:    l.Rejected,
		ByKind:      l.ByKind,
		Status:      string(l.Status),
		Error:       l.Error,
		DurationMs:  l.FinishedAt.Sub(l.StartedAt).Milliseconds(),
	}
}
