package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"cleanCity/internal/api"
	"cleanCity/internal/config"
	"cleanCity/internal/domain"
	"cleanCity/internal/service"
	"cleanCity/internal/storage/memory"
	"cleanCity/internal/storage/uploads"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Http:    config.HttpConfig{Port: ":0"},
		Uploads: config.UploadConfig{Dir: t.TempDir(), MaxBytes: 10 << 20},
	}

	images, err := uploads.New(cfg.Uploads.Dir, logger)
	if err != nil {
		t.Fatalf("uploads.New: %v", err)
	}

	reports := memory.NewReportStore(nil)
	admins := memory.NewAdminStore(nil)
	if _, err := service.EnsureAdmin(context.Background(), admins, "admin@garbagetracker.com", "admin123", bcrypt.MinCost, logger); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	svc := service.NewService(
		service.NewReportService(reports, images, nil, logger, cfg.Uploads.MaxBytes),
		service.NewStatsService(reports),
		service.NewSessionRegistry(admins, memory.NewSessionStore(), logger, service.SessionOptions{HashCost: bcrypt.MinCost}),
	)

	server := api.NewServer(cfg, logger, svc, images)
	t.Cleanup(server.Close)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func submitReport(t *testing.T, base string) domain.Report {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("location", "12 Main St")
	_ = mw.WriteField("reporterName", "Jane")
	_ = mw.WriteField("reporterEmail", "jane@example.com")
	fw, _ := mw.CreateFormFile("image", "trash.png")
	_, _ = fw.Write(pngHeader)
	_ = mw.Close()

	resp, data := do(t, http.MethodPost, base+"/api/reports", "", &buf, mw.FormDataContentType())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: expected 201 got %d body=%s", resp.StatusCode, data)
	}

	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return r
}

func stats(t *testing.T, base, token string) domain.ReportStats {
	t.Helper()

	resp, data := do(t, http.MethodGet, base+"/api/admin/stats", token, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: expected 200 got %d body=%s", resp.StatusCode, data)
	}
	var s domain.ReportStats
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	return s
}

func login(t *testing.T, base string) string {
	t.Helper()

	resp, data := do(t, http.MethodPost, base+"/api/admin/login", "",
		strings.NewReader(`{"email":"admin@garbagetracker.com","password":"admin123"}`), "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", resp.StatusCode, data)
	}
	var lr domain.LoginResponse
	if err := json.Unmarshal(data, &lr); err != nil || lr.SessionID == "" {
		t.Fatalf("decode login: %v body=%s", err, data)
	}
	return lr.SessionID
}

func TestEndToEnd_SubmitVerifyComplete(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	report := submitReport(t, base)
	if report.Status != domain.StatusPending || report.VerifiedAt != nil || report.CompletedAt != nil {
		t.Fatalf("unexpected new report %+v", report)
	}
	if !strings.HasPrefix(report.ImageURL, "/uploads/") || strings.Contains(report.ImageURL, "trash") {
		t.Fatalf("unexpected image url %q", report.ImageURL)
	}

	resp, img := do(t, http.MethodGet, base+report.ImageURL, "", nil, "")
	if resp.StatusCode != http.StatusOK || !bytes.Equal(img, pngHeader) {
		t.Fatalf("uploaded image not served: %d", resp.StatusCode)
	}

	token := login(t, base)

	if s := stats(t, base, token); s.Pending != 1 || s.Total != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}

	resp, data := do(t, http.MethodPatch, base+"/api/reports/"+report.ID.String()+"/status", token,
		strings.NewReader(`{"status":"completed"}`), "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: expected 200 got %d body=%s", resp.StatusCode, data)
	}
	var updated domain.Report
	_ = json.Unmarshal(data, &updated)
	if updated.Status != domain.StatusCompleted || updated.CompletedAt == nil || updated.VerifiedAt != nil {
		t.Fatalf("unexpected updated report %+v", updated)
	}

	if s := stats(t, base, token); s.Completed != 1 || s.Pending != 0 || s.Total != 1 {
		t.Fatalf("unexpected stats after completion %+v", s)
	}

	resp, data = do(t, http.MethodGet, base+"/api/reports", "", nil, "")
	var list []domain.Report
	if err := json.Unmarshal(data, &list); err != nil || resp.StatusCode != http.StatusOK || len(list) != 1 {
		t.Fatalf("unexpected list %d %s", resp.StatusCode, data)
	}
}

func TestAuthRequiredEndpoints(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL
	report := submitReport(t, base)

	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/admin/me", ""},
		{http.MethodGet, "/api/admin/stats", ""},
		{http.MethodPatch, "/api/reports/" + report.ID.String() + "/status", `{"status":"verified"}`},
	}
	for _, c := range cases {
		for _, token := range []string{"", "forged"} {
			resp, data := do(t, c.method, base+c.path, token, strings.NewReader(c.body), "application/json")
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("%s %s token=%q: expected 401 got %d", c.method, c.path, token, resp.StatusCode)
			}
			if !strings.Contains(string(data), `"code":"unauthorized"`) {
				t.Fatalf("unexpected body %s", data)
			}
		}
	}

	resp, data := do(t, http.MethodGet, base+"/api/reports/"+report.ID.String(), "", nil, "")
	var got domain.Report
	_ = json.Unmarshal(data, &got)
	if resp.StatusCode != http.StatusOK || got.Status != domain.StatusPending {
		t.Fatalf("unauthorized patch must not touch the report: %d %+v", resp.StatusCode, got)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	resp, _ := do(t, http.MethodPost, base+"/api/admin/login", "",
		strings.NewReader(`{"email":"admin@garbagetracker.com","password":"wrong"}`), "application/json")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}

	token := login(t, base)

	resp, data := do(t, http.MethodGet, base+"/api/admin/me", token, nil, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"authenticated":true`) {
		t.Fatalf("me: %d %s", resp.StatusCode, data)
	}

	for i := 0; i < 2; i++ {
		resp, _ := do(t, http.MethodPost, base+"/api/admin/logout", token, nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("logout #%d: expected 200 got %d", i, resp.StatusCode)
		}
	}
	resp, _ = do(t, http.MethodPost, base+"/api/admin/logout", "", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout without token: expected 200 got %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, base+"/api/admin/me", token, nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestNotFoundAndValidation(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL
	token := login(t, base)

	cases := []struct {
		method, path, token, body string
		status                    int
	}{
		{http.MethodGet, "/api/reports/00000000-0000-0000-0000-000000000000", "", "", http.StatusNotFound},
		{http.MethodGet, "/api/reports/not-a-uuid", "", "", http.StatusNotFound},
		{http.MethodGet, "/uploads/nothing.png", "", "", http.StatusNotFound},
		{http.MethodPatch, "/api/reports/00000000-0000-0000-0000-000000000000/status", token, `{"status":"verified"}`, http.StatusNotFound},
		{http.MethodPatch, "/api/reports/00000000-0000-0000-0000-000000000000/status", token, `{"status":"archived"}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		resp, data := do(t, c.method, base+c.path, c.token, strings.NewReader(c.body), "application/json")
		if resp.StatusCode != c.status {
			t.Fatalf("%s %s: expected %d got %d body=%s", c.method, c.path, c.status, resp.StatusCode, data)
		}
		if !strings.Contains(string(data), `"message"`) {
			t.Fatalf("%s %s: expected JSON error body, got %s", c.method, c.path, data)
		}
	}

	resp, data := do(t, http.MethodGet, base+"/api/health", "", nil, "")
	if resp.StatusCode != http.StatusOK || string(data) != "ok" {
		t.Fatalf("health: %d %s", resp.StatusCode, data)
	}
}

func TestLoginRateLimit_IgnoresSpoofedForwardingHeaders(t *testing.T) {
	srv := newTestServer(t)

	codes := map[int]int{}
	for i := 0; i < 20; i++ {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/admin/login",
			strings.NewReader(`{"email":"admin@garbagetracker.com","password":"wrong"}`))
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("login #%d: %v", i, err)
		}
		_ = resp.Body.Close()
		codes[resp.StatusCode]++
	}

	if codes[http.StatusUnauthorized] != 5 || codes[http.StatusTooManyRequests] != 15 {
		t.Fatalf("expected 5x401 and 15x429, got %v", codes)
	}
}

func TestLogin_IgnoresExtraFields(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, http.MethodPost, srv.URL+"/api/admin/login", "",
		strings.NewReader(`{"email":"admin@garbagetracker.com","password":"admin123","remember":true}`), "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.StatusCode, data)
	}
}
