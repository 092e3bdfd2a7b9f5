package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReportEventType string

const (
	EventReportCreated       ReportEventType = "report.created"
	EventReportStatusChanged ReportEventType = "report.status_changed"
)

type ReportEvent struct {
	Type       ReportEventType `json:"type"`
	ReportID   uuid.UUID       `json:"report_id"`
	Status     ReportStatus    `json:"status"`
	Location   string          `json:"location"`
	OccurredAt time.Time       `json:"occurred_at"`
}
