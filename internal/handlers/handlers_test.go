package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/presenter"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

const maxTestFileSize = 1 << 20

type stubParser struct {
	text string
	err  error
}

func (p *stubParser) ExtractText(filename string, data []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.text, nil
}

type stubFetcher struct {
	text string
	err  error
	urls []string
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	f.urls = append(f.urls, rawURL)
	return f.text, f.err
}

type stubMatchService struct {
	result *services.MatchResult
	err    error
	jobs   []string
}

func (s *stubMatchService) Match(ctx context.Context, resumeText, jobDescription string) (*services.MatchResult, error) {
	s.jobs = append(s.jobs, jobDescription)
	return s.result, s.err
}

func (s *stubMatchService) EvaluateResume(ctx context.Context, evalID uuid.UUID) error {
	return nil
}

type stubTalentPool struct {
	matches []models.CandidateMatch
	err     error
}

func (p *stubTalentPool) IndexCandidate(ctx context.Context, evaluationID string, profile *models.CandidateProfile, resumeText string) error {
	return nil
}

func (p *stubTalentPool) Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error) {
	if query == "" {
		return nil, services.ErrEmptyQuery
	}
	return p.matches, p.err
}

type stubDocRepo struct {
	docs      map[uuid.UUID]*models.Document
	createErr error
}

func (r *stubDocRepo) Create(doc *models.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.docs == nil {
		r.docs = make(map[uuid.UUID]*models.Document)
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *stubDocRepo) FindByID(id uuid.UUID) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return doc, nil
}

type stubEvalRepo struct {
	evals map[uuid.UUID]*models.Evaluation
}

func (r *stubEvalRepo) Create(eval *models.Evaluation) error {
	if r.evals == nil {
		r.evals = make(map[uuid.UUID]*models.Evaluation)
	}
	r.evals[eval.ID] = eval
	return nil
}

func (r *stubEvalRepo) FindByID(id uuid.UUID) (*models.Evaluation, error) {
	eval, ok := r.evals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return eval, nil
}

func (r *stubEvalRepo) UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error {
	return nil
}

func (r *stubEvalRepo) UpdateResult(id uuid.UUID, result *repositories.EvaluationUpdateData) error {
	return nil
}

func (r *stubEvalRepo) UpdateError(id uuid.UUID, errorMsg string, rawReply *string) error {
	return nil
}

func (r *stubEvalRepo) FindPendingJobs(limit int) ([]models.Evaluation, error) {
	return nil, nil
}

type stubStorage struct {
	saved   []string
	deleted []string
}

func (s *stubStorage) Init(ctx context.Context) error { return nil }

func (s *stubStorage) SaveFile(ctx context.Context, file *multipart.FileHeader, fileType string) (*services.StoredFile, error) {
	location := "uploads/" + file.Filename
	s.saved = append(s.saved, location)
	return &services.StoredFile{
		Filename: file.Filename,
		Location: location,
		MimeType: services.MimeText,
		Size:     file.Size,
	}, nil
}

func (s *stubStorage) ReadFile(ctx context.Context, location string) ([]byte, error) {
	return nil, services.ErrFileNotFound
}

func (s *stubStorage) DeleteFile(ctx context.Context, location string) error {
	s.deleted = append(s.deleted, location)
	return nil
}

type stubWorker struct {
	mu     sync.Mutex
	queued []uuid.UUID
}

func (w *stubWorker) Start(ctx context.Context) {}

func (w *stubWorker) Stop() {}

func (w *stubWorker) EnqueueJob(evalID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queued = append(w.queued, evalID)
}

func multipartRequest(t *testing.T, target string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile(resumeField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request, out any) int {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func matchApp(h *MatchHandler) *fiber.App {
	app := fiber.New()
	app.Post("/match", h.HandleMatch)
	return app
}

func TestHandleMatchSuccess(t *testing.T) {
	svc := &stubMatchService{result: &services.MatchResult{
		Profile: &models.CandidateProfile{
			FullName:        "Jane Doe",
			EmailID:         "jane@x.io",
			MatchPercentage: "80%",
		},
		RawReply:       `{"Full Name":"Jane Doe"}`,
		CandidateIndex: 0,
		Candidates:     1,
		Provider:       "stub",
	}}
	h := NewMatchHandler(&stubParser{text: "resume text"}, nil, svc, maxTestFileSize, nil)

	req := multipartRequest(t, "/match?show_raw=true", map[string]string{"job_description": "Go engineer"}, "cv.txt", "resume text")

	var body models.MatchResponse
	status := doRequest(t, matchApp(h), req, &body)

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body.Profile == nil || body.Profile.FullName != "Jane Doe" {
		t.Fatalf("unexpected profile: %+v", body.Profile)
	}
	if body.RawReply == "" {
		t.Error("expected raw reply when show_raw is set")
	}
	if len(svc.jobs) != 1 || svc.jobs[0] != "Go engineer" {
		t.Errorf("unexpected job descriptions passed: %v", svc.jobs)
	}
}

func TestHandleMatchFetchesJobURL(t *testing.T) {
	svc := &stubMatchService{result: &services.MatchResult{
		Profile: &models.CandidateProfile{FullName: "Jane", EmailID: "j@x.io", MatchPercentage: "50%"},
	}}
	fetcher := &stubFetcher{text: "fetched posting"}
	h := NewMatchHandler(&stubParser{text: "resume"}, fetcher, svc, maxTestFileSize, nil)

	req := multipartRequest(t, "/match", map[string]string{"job_url": "https://jobs.example/1"}, "cv.txt", "resume")
	status := doRequest(t, matchApp(h), req, nil)

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(fetcher.urls) != 1 || fetcher.urls[0] != "https://jobs.example/1" {
		t.Errorf("fetcher not called with job url: %v", fetcher.urls)
	}
	if len(svc.jobs) != 1 || svc.jobs[0] != "fetched posting" {
		t.Errorf("expected fetched description to be matched, got %v", svc.jobs)
	}
}

func TestHandleMatchErrors(t *testing.T) {
	modelErr := &services.ModelError{Provider: "stub", Message: "boom"}

	tests := []struct {
		name       string
		parser     *stubParser
		matchErr   error
		fields     map[string]string
		filename   string
		wantStatus int
		wantKind   string
		retryable  bool
	}{
		{
			name:       "extraction failure",
			parser:     &stubParser{text: "resume"},
			matchErr:   &services.ExtractionError{Kind: services.ErrNoJSONContent},
			fields:     map[string]string{"job_description": "jd"},
			filename:   "cv.txt",
			wantStatus: fiber.StatusUnprocessableEntity,
			wantKind:   presenter.KindExtraction,
			retryable:  true,
		},
		{
			name:       "model timeout",
			parser:     &stubParser{text: "resume"},
			matchErr:   &services.ModelTimeoutError{ModelError: modelErr},
			fields:     map[string]string{"job_description": "jd"},
			filename:   "cv.txt",
			wantStatus: fiber.StatusGatewayTimeout,
			wantKind:   presenter.KindModelTimeout,
			retryable:  true,
		},
		{
			name:       "model unavailable",
			parser:     &stubParser{text: "resume"},
			matchErr:   &services.ModelUnavailableError{ModelError: modelErr},
			fields:     map[string]string{"job_description": "jd"},
			filename:   "cv.txt",
			wantStatus: fiber.StatusServiceUnavailable,
			wantKind:   presenter.KindModelUnavailable,
			retryable:  true,
		},
		{
			name:       "unreadable document",
			parser:     &stubParser{err: &services.DocumentReadError{Filename: "cv.pdf", Cause: errors.New("bad xref")}},
			fields:     map[string]string{"job_description": "jd"},
			filename:   "cv.pdf",
			wantStatus: fiber.StatusUnprocessableEntity,
			wantKind:   presenter.KindDocument,
		},
		{
			name:       "missing job description",
			parser:     &stubParser{text: "resume"},
			filename:   "cv.txt",
			wantStatus: fiber.StatusBadRequest,
			wantKind:   presenter.KindInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubMatchService{err: tt.matchErr, result: &services.MatchResult{CandidateIndex: -1}}
			h := NewMatchHandler(tt.parser, nil, svc, maxTestFileSize, nil)

			req := multipartRequest(t, "/match", tt.fields, tt.filename, "content")

			var body models.ErrorResponse
			status := doRequest(t, matchApp(h), req, &body)

			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
			if body.Kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, body.Kind)
			}
			if body.Retryable != tt.retryable {
				t.Errorf("expected retryable=%v, got %v", tt.retryable, body.Retryable)
			}
			if body.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestHandleMatchRequiresResume(t *testing.T) {
	h := NewMatchHandler(&stubParser{}, nil, &stubMatchService{}, maxTestFileSize, nil)

	req := multipartRequest(t, "/match", map[string]string{"job_description": "jd"}, "", "")
	status := doRequest(t, matchApp(h), req, nil)

	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestHandleSearch(t *testing.T) {
	pool := &stubTalentPool{matches: []models.CandidateMatch{
		{EvaluationID: "e1", FullName: "Jane Doe", Score: 0.9},
	}}

	tests := []struct {
		name       string
		pool       services.TalentPool
		target     string
		wantStatus int
		wantCount  int
	}{
		{name: "disabled", pool: nil, target: "/search?q=go", wantStatus: fiber.StatusServiceUnavailable},
		{name: "empty query", pool: pool, target: "/search", wantStatus: fiber.StatusBadRequest},
		{name: "results", pool: pool, target: "/search?q=go+engineer&limit=5", wantStatus: fiber.StatusOK, wantCount: 1},
		{name: "backend failure", pool: &stubTalentPool{err: errors.New("qdrant down")}, target: "/search?q=go", wantStatus: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/search", NewSearchHandler(tt.pool, nil).HandleSearch)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.wantStatus != fiber.StatusOK {
				if status := doRequest(t, app, req, nil); status != tt.wantStatus {
					t.Errorf("expected %d, got %d", tt.wantStatus, status)
				}
				return
			}

			var body models.SearchResponse
			if status := doRequest(t, app, req, &body); status != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, status)
			}
			if len(body.Candidates) != tt.wantCount {
				t.Errorf("expected %d candidates, got %d", tt.wantCount, len(body.Candidates))
			}
			if body.Query != "go engineer" {
				t.Errorf("unexpected query echo %q", body.Query)
			}
		})
	}
}

func TestHandleUpload(t *testing.T) {
	storage := &stubStorage{}
	docRepo := &stubDocRepo{}
	app := fiber.New()
	app.Post("/upload", NewUploadHandler(docRepo, storage, maxTestFileSize, nil).HandleUpload)

	req := multipartRequest(t, "/upload", nil, "cv.txt", "Jane Doe resume")

	var body models.UploadResponse
	status := doRequest(t, app, req, &body)

	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if body.FileType != models.FileTypeResume || body.OriginalName != "cv.txt" {
		t.Errorf("unexpected upload response: %+v", body)
	}
	if len(docRepo.docs) != 1 {
		t.Errorf("expected one stored document, got %d", len(docRepo.docs))
	}
}

func TestHandleUploadCleansUpOnDatabaseFailure(t *testing.T) {
	storage := &stubStorage{}
	docRepo := &stubDocRepo{createErr: errors.New("db down")}
	app := fiber.New()
	app.Post("/upload", NewUploadHandler(docRepo, storage, maxTestFileSize, nil).HandleUpload)

	req := multipartRequest(t, "/upload", nil, "cv.txt", "Jane Doe resume")
	status := doRequest(t, app, req, nil)

	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != storage.saved[0] {
		t.Errorf("expected saved file to be deleted, saved=%v deleted=%v", storage.saved, storage.deleted)
	}
}

func TestHandleEvaluate(t *testing.T) {
	docID := uuid.New()
	docRepo := &stubDocRepo{docs: map[uuid.UUID]*models.Document{docID: {ID: docID}}}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "queued", body: `{"resume_document_id":"` + docID.String() + `","job_description":"Go engineer"}`, wantStatus: fiber.StatusAccepted},
		{name: "job url only", body: `{"resume_document_id":"` + docID.String() + `","job_url":"https://jobs.example/1"}`, wantStatus: fiber.StatusAccepted},
		{name: "no job", body: `{"resume_document_id":"` + docID.String() + `","job_description":"   "}`, wantStatus: fiber.StatusBadRequest},
		{name: "no resume", body: `{"job_description":"Go engineer"}`, wantStatus: fiber.StatusBadRequest},
		{name: "bad id", body: `{"resume_document_id":"nope","job_description":"Go"}`, wantStatus: fiber.StatusBadRequest},
		{name: "unknown document", body: `{"resume_document_id":"` + uuid.NewString() + `","job_description":"Go"}`, wantStatus: fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			worker := &stubWorker{}
			evalRepo := &stubEvalRepo{}
			app := fiber.New()
			app.Post("/evaluate", NewEvaluationHandler(evalRepo, docRepo, worker).HandleEvaluate)

			req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			status := doRequest(t, app, req, nil)
			if status != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, status)
			}

			wantQueued := 0
			if tt.wantStatus == fiber.StatusAccepted {
				wantQueued = 1
			}
			if len(worker.queued) != wantQueued || len(evalRepo.evals) != wantQueued {
				t.Errorf("expected %d queued evaluations, got queued=%d stored=%d", wantQueued, len(worker.queued), len(evalRepo.evals))
			}
		})
	}
}

func TestHandleGetResult(t *testing.T) {
	completedID := uuid.New()
	failedID := uuid.New()
	pct := "80%"
	idx := 1
	provider := "ollama"
	errMsg := "no JSON-shaped content found in the model reply; please resubmit"

	evalRepo := &stubEvalRepo{evals: map[uuid.UUID]*models.Evaluation{
		completedID: {
			ID:              completedID,
			Status:          models.StatusCompleted,
			Profile:         &models.CandidateProfile{FullName: "Jane Doe", EmailID: "jane@x.io", MatchPercentage: pct},
			MatchPercentage: &pct,
			CandidateIndex:  &idx,
			Provider:        &provider,
		},
		failedID: {
			ID:           failedID,
			Status:       models.StatusFailed,
			ErrorMessage: &errMsg,
		},
	}}

	app := fiber.New()
	app.Get("/result/:id", NewResultHandler(evalRepo).HandleGetResult)

	t.Run("completed", func(t *testing.T) {
		var body models.ResultResponse
		status := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/result/"+completedID.String(), nil), &body)
		if status != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if body.Result == nil || body.Result.MatchPercentage != "80%" || body.Result.CandidateIndex != 1 || body.Result.Provider != "ollama" {
			t.Fatalf("unexpected result: %+v", body.Result)
		}
	})

	t.Run("failed", func(t *testing.T) {
		var body models.ResultResponse
		doRequest(t, app, httptest.NewRequest(http.MethodGet, "/result/"+failedID.String(), nil), &body)
		if body.Result != nil {
			t.Errorf("expected no result for failed evaluation")
		}
		if body.ErrorMessage == nil || *body.ErrorMessage != errMsg {
			t.Errorf("unexpected error message: %v", body.ErrorMessage)
		}
	})

	t.Run("not found", func(t *testing.T) {
		status := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/result/"+uuid.NewString(), nil), nil)
		if status != fiber.StatusNotFound {
			t.Errorf("expected 404, got %d", status)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		status := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/result/not-a-uuid", nil), nil)
		if status != fiber.StatusBadRequest {
			t.Errorf("expected 400, got %d", status)
		}
	})
}
