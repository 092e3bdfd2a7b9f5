package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewReport_IgnoresDraftStatus(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewReport(ReportDraft{Location: "12 Main St", Status: StatusCompleted}, uuid.New(), now)

	if r.Status != StatusPending {
		t.Fatalf("expected pending, got %s", r.Status)
	}
	if !r.CreatedAt.Equal(now) || !r.UpdatedAt.Equal(now) {
		t.Fatalf("expected createdAt=updatedAt=now, got %v %v", r.CreatedAt, r.UpdatedAt)
	}
	if r.VerifiedAt != nil || r.CompletedAt != nil {
		t.Fatalf("expected nil markers")
	}
}

func TestApplyStatus_Markers(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewReport(ReportDraft{}, uuid.New(), t0)

	t1 := t0.Add(time.Minute)
	r.ApplyStatus(StatusVerified, t1)
	if r.VerifiedAt == nil || !r.VerifiedAt.Equal(t1) {
		t.Fatalf("expected verifiedAt=%v got %v", t1, r.VerifiedAt)
	}

	t2 := t1.Add(time.Minute)
	r.ApplyStatus(StatusInProgress, t2)
	if !r.VerifiedAt.Equal(t1) {
		t.Fatalf("in-progress must keep verifiedAt, got %v", r.VerifiedAt)
	}
	if !r.UpdatedAt.Equal(t2) {
		t.Fatalf("expected updatedAt=%v got %v", t2, r.UpdatedAt)
	}
	if r.CompletedAt != nil {
		t.Fatalf("completedAt must stay nil")
	}

	t3 := t2.Add(time.Minute)
	r.ApplyStatus(StatusPending, t3)
	if r.VerifiedAt == nil {
		t.Fatalf("moving back must not clear verifiedAt")
	}
}

func TestApplyStatus_PendingToCompletedJumpAllowed(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewReport(ReportDraft{}, uuid.New(), t0)

	r.ApplyStatus(StatusCompleted, t0.Add(time.Hour))

	if r.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", r.Status)
	}
	if r.CompletedAt == nil {
		t.Fatalf("expected completedAt set")
	}
	if r.VerifiedAt != nil {
		t.Fatalf("verifiedAt must stay nil on a direct jump")
	}
}

func TestClone_IsDeep(t *testing.T) {
	lat := 1.5
	desc := "bags"
	r := NewReport(ReportDraft{Latitude: &lat, Description: &desc}, uuid.New(), time.Now())
	r.ApplyStatus(StatusVerified, time.Now())

	c := r.Clone()
	*c.Latitude = 9
	*c.Description = "changed"
	*c.VerifiedAt = time.Time{}

	if *r.Latitude != 1.5 || *r.Description != "bags" || r.VerifiedAt.IsZero() {
		t.Fatalf("clone shares pointers with the original")
	}
}

func TestReportStatus_Valid(t *testing.T) {
	for _, s := range ReportStatuses {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	for _, s := range []ReportStatus{"", "done", "Pending", "in_progress"} {
		if s.Valid() {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestSession_Active(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now}
	if s.Active(now) {
		t.Fatalf("session expiring exactly now is not active")
	}
	if !s.Active(now.Add(-time.Nanosecond)) {
		t.Fatalf("session should be active before expiry")
	}
}

func TestApplyStatus_RestampsMarkerOnRepeat(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewReport(ReportDraft{}, uuid.New(), t0)

	r.ApplyStatus(StatusVerified, t0.Add(time.Minute))
	r.ApplyStatus(StatusPending, t0.Add(2*time.Minute))
	again := t0.Add(3 * time.Minute)
	r.ApplyStatus(StatusVerified, again)

	if !r.VerifiedAt.Equal(again) {
		t.Fatalf("expected verifiedAt=%v got %v", again, r.VerifiedAt)
	}
}
