package http

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "freightpulse/internal/errors"
)

// maxManifestSize caps uploaded manifest files at 32 MiB.
const maxManifestSize = 32 << 20

// ManifestHandler accepts manifest uploads and runs the processing
// pipeline on them.
type ManifestHandler struct {
	service      AnalyticsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	uploadDir    string
}

// uploadMeta carries the validated attributes of an uploaded manifest.
type uploadMeta struct {
	Filename  string `validate:"required"`
	Extension string `validate:"required,oneof=.xlsx .xlsm .csv"`
	Size      int64  `validate:"gt=0"`
}

// NewManifestHandler creates a manifest handler. Uploaded files are
// staged in uploadDir before processing.
func NewManifestHandler(service AnalyticsServiceInterface, uploadDir string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ManifestHandler {
	return &ManifestHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "manifest_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
		uploadDir:    uploadDir,
	}
}

// Routes returns the manifest routes.
func (h *ManifestHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.ProcessManifest)

	return r
}

// ProcessManifest accepts a multipart upload (field "manifest"), stages
// it, and runs the full processing pipeline. The response carries the
// cohort metrics, the resolved period, and the freshness decision; the
// decision tells the caller whether canonical artifacts were produced.
func (h *ManifestHandler) ProcessManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxManifestSize)
	if err := r.ParseMultipartForm(maxManifestSize); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationError("invalid multipart request", err))
		return
	}

	file, header, err := r.FormFile("manifest")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationError("manifest file field is required", err))
		return
	}
	defer file.Close()

	meta := uploadMeta{
		Filename:  filepath.Base(header.Filename),
		Extension: strings.ToLower(filepath.Ext(header.Filename)),
		Size:      header.Size,
	}
	if err := h.validate.Struct(meta); err != nil {
		h.errorHandler.HandleError(w, r,
			apierrors.NewValidationError("unsupported manifest upload", err).
				WithContext("filename", meta.Filename))
		return
	}

	staged, err := h.stageUpload(file, meta.Filename)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer os.Remove(staged)

	h.logger.InfoContext(ctx, "manifest upload staged",
		slog.String("filename", meta.Filename),
		slog.Int64("size_bytes", meta.Size))

	outcome, err := h.service.ProcessFile(ctx, staged)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if outcome.HistoricalUpdated {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, outcome)
}

// stageUpload copies the uploaded stream into the staging directory.
func (h *ManifestHandler) stageUpload(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", apierrors.NewStorageError("failed to create upload directory", err)
	}

	dst, err := os.CreateTemp(h.uploadDir, "upload-*-"+filename)
	if err != nil {
		return "", apierrors.NewStorageError("failed to stage manifest upload", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", apierrors.NewStorageError("failed to write manifest upload", err)
	}

	return dst.Name(), nil
}
