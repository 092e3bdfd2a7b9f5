package domain

import "io"

type CreateReportRequest struct {
	Location      string   `json:"location" validate:"required,notblank,max=500"`
	ReporterName  string   `json:"reporterName" validate:"required,notblank,max=200"`
	ReporterEmail string   `json:"reporterEmail" validate:"required,email,max=320"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,lat"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,lng"`
}

type UpdateStatusRequest struct {
	Status ReportStatus `json:"status" validate:"required,oneof=pending verified in-progress completed"`
}

// ImageUpload is the raw image part of a report submission.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}
