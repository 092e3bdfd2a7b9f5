package public

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"cleanCity/internal/domain"
	"cleanCity/internal/storage/uploads"
	"cleanCity/pkg/e"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// formOverhead is the room left for the text fields of a report submission.
const formOverhead = 1 << 20

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Reports interface {
	List(ctx context.Context) ([]*domain.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	Create(ctx context.Context, req domain.CreateReportRequest, img *domain.ImageUpload) (*domain.Report, error)
}

type Uploads interface {
	Open(ctx context.Context, name string) (*uploads.File, error)
}

type Handler struct {
	logger    *slog.Logger
	Reports   Reports
	Uploads   Uploads
	maxUpload int64
}

func NewHandler(logger *slog.Logger, reports Reports, uploads Uploads, maxUpload int64) *Handler {
	return &Handler{
		logger:    logger,
		Reports:   reports,
		Uploads:   uploads,
		maxUpload: maxUpload,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ListReports", slog.String("remote", r.RemoteAddr))

	reports, err := h.Reports.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if reports == nil {
		reports = []*domain.Report{}
	}

	l.Info("reports listed", slog.Int("count", len(reports)))
	h.writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("GetReport", slog.String("remote", r.RemoteAddr))

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.Warn("invalid id", slog.String("id", idStr))
		h.handleError(w, r, e.ErrNotFound)
		return
	}

	report, err := h.Reports.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("CreateReport", slog.String("remote", r.RemoteAddr))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			l.Warn("upload too large", slog.Int64("limit", h.maxUpload))
			h.handleError(w, r, e.NewValidationError(fmt.Sprintf("image must be at most %d bytes", h.maxUpload)))
			return
		}
		l.Warn("invalid multipart form", slog.String("error", err.Error()))
		h.handleError(w, r, e.NewValidationError("request must be multipart/form-data"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req, err := parseCreateForm(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var img *domain.ImageUpload
	switch files := r.MultipartForm.File["image"]; len(files) {
	case 0:
	case 1:
		f, err := files[0].Open()
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		defer f.Close()
		img = &domain.ImageUpload{Filename: files[0].Filename, Size: files[0].Size, Body: f}
	default:
		h.handleError(w, r, e.NewValidationError("exactly one image is allowed"))
		return
	}

	l.Info("creating report", slog.String("location", req.Location))

	report, err := h.Reports.Create(r.Context(), req, img)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("report created", slog.String("id", report.ID.String()))
	h.writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := h.Uploads.Open(r.Context(), name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	defer f.Content.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, f.Name, f.ModTime, f.Content)
}

func parseCreateForm(r *http.Request) (domain.CreateReportRequest, error) {
	req := domain.CreateReportRequest{
		Location:      strings.TrimSpace(r.FormValue("location")),
		ReporterName:  strings.TrimSpace(r.FormValue("reporterName")),
		ReporterEmail: strings.TrimSpace(r.FormValue("reporterEmail")),
	}

	if v := strings.TrimSpace(r.FormValue("description")); v != "" {
		req.Description = &v
	}

	var err error
	if req.Latitude, err = optionalFloat(r, "latitude"); err != nil {
		return req, err
	}
	if req.Longitude, err = optionalFloat(r, "longitude"); err != nil {
		return req, err
	}
	return req, nil
}

func optionalFloat(r *http.Request, field string) (*float64, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, e.NewValidationError(field + " must be a number")
	}
	return &f, nil
}
