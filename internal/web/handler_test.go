package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/internal/entity"
	"property-scraper/internal/usecase"
)

type stubPipeline struct {
	err    error
	input  string
	output string
}

func (p *stubPipeline) Run(ctx context.Context, inputPath, outputPath string) (*entity.RunReport, error) {
	p.input, p.output = inputPath, outputPath
	if p.err != nil {
		return nil, p.err
	}

	if err := os.WriteFile(outputPath, []byte("Lat/Long,Remarks\n\"1,2\",ok\n"), 0o644); err != nil {
		return nil, err
	}

	return &entity.RunReport{RunID: uuid.New(), Processed: 1, Found: 1}, nil
}

func newTestRouter(t *testing.T, pipeline *stubPipeline) (*gin.Engine, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{ServerConfig: &config.ServerConfig{Mode: gin.TestMode, UploadDir: dir}}
	logger := zap.NewNop()

	handler := NewHandler(HandlerParams{
		Config:  cfg,
		Logger:  logger,
		Usecase: &usecase.Service{Pipeline: pipeline},
	})

	return NewRouter(cfg, logger, handler), dir
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if filename == "" {
		if err := w.WriteField(field, ""); err != nil {
			t.Fatalf("write field: %v", err)
		}
	} else {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}

		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return body, w.FormDataContentType()
}

func TestForm(t *testing.T) {
	r, _ := newTestRouter(t, &stubPipeline{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="file"`) {
		t.Errorf("unexpected form response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_Success(t *testing.T) {
	pipeline := &stubPipeline{}
	r, dir := newTestRouter(t, pipeline)

	body, contentType := multipartBody(t, "file", "leads.csv", "Lat/Long\n\"1,2\"\n")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "leadsdone.csv") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	if !strings.Contains(rec.Body.String(), "Remarks") {
		t.Errorf("output not returned: %s", rec.Body.String())
	}

	if !strings.HasPrefix(pipeline.input, dir) || filepath.Base(pipeline.input) != "leads.csv" {
		t.Errorf("upload saved to unexpected path %q", pipeline.input)
	}

	saved, err := os.ReadFile(pipeline.input)
	if err != nil || !strings.HasPrefix(string(saved), "Lat/Long") {
		t.Errorf("upload not saved: %v", err)
	}
}

func TestUpload_Rejections(t *testing.T) {
	testCases := []struct {
		name     string
		build    func(t *testing.T) (*bytes.Buffer, string)
		status   int
		message  string
		pipeline *stubPipeline
	}{
		{
			name: "not multipart",
			build: func(t *testing.T) (*bytes.Buffer, string) {
				return bytes.NewBufferString("x=1"), "application/x-www-form-urlencoded"
			},
			status:  http.StatusBadRequest,
			message: msgNoFilePart,
		},
		{
			name: "other field",
			build: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "upload", "leads.csv", "x")
			},
			status:  http.StatusBadRequest,
			message: msgNoFilePart,
		},
		{
			name: "empty selection",
			build: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "file", "", "")
			},
			status:  http.StatusBadRequest,
			message: msgNoSelectedFile,
		},
		{
			name: "wrong extension",
			build: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "file", "leads.xlsx", "x")
			},
			status:  http.StatusBadRequest,
			message: msgOnlyCSV,
		},
		{
			name: "pipeline failure",
			build: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "file", "leads.csv", "x")
			},
			status:   http.StatusInternalServerError,
			message:  msgProcessingFailed,
			pipeline: &stubPipeline{err: errors.New("Search: unexpected_automation at 40.1,-75.2")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := tc.pipeline
			if pipeline == nil {
				pipeline = &stubPipeline{}
			}

			r, _ := newTestRouter(t, pipeline)

			body, contentType := tc.build(t)
			req := httptest.NewRequest(http.MethodPost, "/", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}

			if !strings.Contains(rec.Body.String(), tc.message) {
				t.Errorf("expected %q in body: %s", tc.message, rec.Body.String())
			}

			if strings.Contains(rec.Body.String(), "40.1,-75.2") {
				t.Error("failure details leaked to the client")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, &stubPipeline{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec.Code != http.StatusOK || body["status"] != "ok" || body["busy"] != false {
		t.Errorf("unexpected health response %d: %v", rec.Code, body)
	}
}

func TestSafeFilename(t *testing.T) {
	tests := map[string]string{
		"leads.csv":               "leads.csv",
		"../../etc/passwd.csv":    "passwd.csv",
		`C:\Users\me\my list.csv`: "my_list.csv",
		".hidden.csv":             "hidden.csv",
		"":                        "",
	}

	for in, want := range tests {
		if got := safeFilename(in); got != want {
			t.Errorf("safeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
