package models

import "time"

// ExportStatus captures background export job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one asynchronous PDF bundle generation.
type ExportJob struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"session_id"`
	FileIDs      []string     `json:"file_ids"`
	Status       ExportStatus `json:"status"`
	Progress     int          `json:"progress"`
	ResultPath   string       `json:"-"`
	ResultURL    *string      `json:"result_url,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}
