package web

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/internal/usecase"
	"property-scraper/internal/usecase/adapters"
	"property-scraper/pkg/logg"
)

const (
	handlerName  = "UploadHandler"
	formField    = "file"
	formTemplate = "upload.html"
	outputSuffix = "done.csv"

	msgNoFilePart       = "No file part"
	msgNoSelectedFile   = "No selected file"
	msgOnlyCSV          = "Only .csv files are accepted"
	msgProcessingFailed = "Processing failed"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Handler serves the upload form and runs one pipeline at a time.
type Handler struct {
	logger    *zap.Logger
	pipeline  adapters.PipelineService
	uploadDir string

	mu      sync.Mutex
	running atomic.Bool
}

type HandlerParams struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		logger:    params.Logger.With(zap.String(logg.Layer, handlerName)),
		pipeline:  params.Usecase.Pipeline,
		uploadDir: params.Config.ServerConfig.UploadDir,
	}
}

type formView struct {
	Error string
}

func (h *Handler) Form(c *gin.Context) {
	c.HTML(http.StatusOK, formTemplate, formView{})
}

// Upload saves the posted CSV, runs it and returns the enriched file as an
// attachment. Failures re-render the form with a generic message.
func (h *Handler) Upload(c *gin.Context) {
	const op = "Upload"
	logger := h.logger.With(zap.String(logg.Operation, op))

	form, err := c.MultipartForm()
	if err != nil {
		h.renderError(c, http.StatusBadRequest, msgNoFilePart)

		return
	}

	files := form.File[formField]
	if len(files) == 0 {
		// A file input submitted without a selection arrives as a plain value.
		if _, ok := form.Value[formField]; ok {
			h.renderError(c, http.StatusBadRequest, msgNoSelectedFile)
		} else {
			h.renderError(c, http.StatusBadRequest, msgNoFilePart)
		}

		return
	}

	file := files[0]

	name := safeFilename(file.Filename)
	if name == "" {
		h.renderError(c, http.StatusBadRequest, msgNoSelectedFile)

		return
	}

	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, ".csv") {
		h.renderError(c, http.StatusBadRequest, msgOnlyCSV)

		return
	}

	runDir := filepath.Join(h.uploadDir, uuid.NewString())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Error("Failed to create upload directory", zap.Error(err), zap.String(logg.Path, runDir))
		h.renderError(c, http.StatusInternalServerError, msgProcessingFailed)

		return
	}

	inputPath := filepath.Join(runDir, name)
	downloadName := strings.TrimSuffix(name, ext) + outputSuffix
	outputPath := filepath.Join(runDir, downloadName)

	if err := c.SaveUploadedFile(file, inputPath); err != nil {
		logger.Error("Failed to save upload", zap.Error(err), zap.String(logg.Path, inputPath))
		h.renderError(c, http.StatusInternalServerError, msgProcessingFailed)

		return
	}

	logger.Info("Upload accepted", zap.String(logg.Path, inputPath), zap.Int64("size", file.Size))

	h.mu.Lock()
	h.running.Store(true)
	report, err := h.pipeline.Run(c.Request.Context(), inputPath, outputPath)
	h.running.Store(false)
	h.mu.Unlock()

	if err != nil {
		logger.Error("Run failed", zap.Error(err), zap.String(logg.Path, inputPath))
		h.renderError(c, http.StatusInternalServerError, msgProcessingFailed)

		return
	}

	if _, err := os.Stat(outputPath); errors.Is(err, os.ErrNotExist) {
		logger.Error("Run produced no output", zap.String(logg.Path, outputPath))
		h.renderError(c, http.StatusInternalServerError, msgProcessingFailed)

		return
	}

	logger.Info("Run complete",
		zap.String(logg.RunID, report.RunID.String()),
		zap.Int("processed", report.Processed),
		zap.Int("found", report.Found))

	c.FileAttachment(outputPath, downloadName)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"busy":   h.running.Load(),
	})
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, formTemplate, formView{Error: message})
}

// safeFilename keeps the base name of an uploaded file with every character
// outside [A-Za-z0-9._-] replaced and leading dots removed.
func safeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")

	return strings.TrimLeft(name, ".")
}
