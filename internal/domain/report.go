package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusVerified   ReportStatus = "verified"
	StatusInProgress ReportStatus = "in-progress"
	StatusCompleted  ReportStatus = "completed"
)

// ReportStatuses lists every status in lifecycle order.
var ReportStatuses = []ReportStatus{StatusPending, StatusVerified, StatusInProgress, StatusCompleted}

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Report struct {
	ID            uuid.UUID    `json:"id"`
	ImageURL      string       `json:"imageUrl"`
	Location      string       `json:"location"`
	Latitude      *float64     `json:"latitude"`
	Longitude     *float64     `json:"longitude"`
	Description   *string      `json:"description"`
	ReporterName  string       `json:"reporterName"`
	ReporterEmail string       `json:"reporterEmail"`
	Status        ReportStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	VerifiedAt    *time.Time   `json:"verifiedAt"`
	CompletedAt   *time.Time   `json:"completedAt"`
}

// ReportDraft holds the caller supplied fields of a new report.
type ReportDraft struct {
	ImageURL      string
	Location      string
	Latitude      *float64
	Longitude     *float64
	Description   *string
	ReporterName  string
	ReporterEmail string
	// Status is ignored: new reports always start as pending.
	Status ReportStatus
}

// NewReport builds the stored form of a draft. Every store creates reports through it.
func NewReport(d ReportDraft, id uuid.UUID, now time.Time) *Report {
	return &Report{
		ID:            id,
		ImageURL:      d.ImageURL,
		Location:      d.Location,
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		Description:   d.Description,
		ReporterName:  d.ReporterName,
		ReporterEmail: d.ReporterEmail,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyStatus sets the status and refreshes the timestamps. verifiedAt and
// completedAt are stamped whenever the matching status is set and are never
// cleared. Any status may follow any other.
func (r *Report) ApplyStatus(status ReportStatus, now time.Time) {
	r.Status = status
	r.UpdatedAt = now
	switch status {
	case StatusVerified:
		t := now
		r.VerifiedAt = &t
	case StatusCompleted:
		t := now
		r.CompletedAt = &t
	}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r *Report) Clone() *Report {
	c := *r
	if r.Latitude != nil {
		v := *r.Latitude
		c.Latitude = &v
	}
	if r.Longitude != nil {
		v := *r.Longitude
		c.Longitude = &v
	}
	if r.Description != nil {
		v := *r.Description
		c.Description = &v
	}
	if r.VerifiedAt != nil {
		v := *r.VerifiedAt
		c.VerifiedAt = &v
	}
	if r.CompletedAt != nil {
		v := *r.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}
