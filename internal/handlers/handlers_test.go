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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

type fakeQueue struct {
	mu   sync.Mutex
	jobs map[string]*queue.Job
	err  error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{jobs: make(map[string]*queue.Job)}
}

func (q *fakeQueue) EnqueueJob(ctx context.Context, job *queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[job.ID] = job
	return nil
}

func (q *fakeQueue) Job(id string) (*queue.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	return job, ok
}

func (q *fakeQueue) only(t *testing.T) *queue.Job {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) != 1 {
		t.Fatalf("expected exactly one job, got %d", len(q.jobs))
	}
	for _, job := range q.jobs {
		return job
	}
	return nil
}

type fakeStore struct {
	records map[string]*types.TranscriptRecord
}

func (s *fakeStore) GetTranscript(ctx context.Context, id string) (*types.TranscriptRecord, error) {
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return nil, types.ErrNotFound
}

func (s *fakeStore) ListTranscripts(ctx context.Context, limit int) ([]types.TranscriptRecord, error) {
	out := make([]types.TranscriptRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var testFormats = audio.NewLoader(nil, nil)

func multipartUpload(t *testing.T, filename string, body []byte, name string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(body)
	}
	if name != "" {
		w.WriteField("name", name)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestUploadQueuesJob(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	app := fiber.New()
	app.Post("/upload", NewUploadHandler(q, testFormats, dir, 1, zap.NewNop().Sugar()).Handle)

	body, ct := multipartUpload(t, "Weekly Sync.mp3", []byte("ID3 audio"), "weekly")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	out := decode(t, resp)

	job := q.only(t)
	if out["job_id"] != job.ID || job.RequestName != "weekly" || job.SourceType != types.SourceUpload {
		t.Errorf("unexpected job %+v / response %v", job, out)
	}
	if !strings.HasPrefix(job.InputName, job.ID+"_") || !strings.HasSuffix(job.InputName, ".mp3") {
		t.Errorf("unexpected input name %q", job.InputName)
	}
	data, err := os.ReadFile(filepath.Join(dir, job.InputName))
	if err != nil || string(data) != "ID3 audio" {
		t.Errorf("uploaded file not saved: %q, %v", data, err)
	}
}

func TestUploadRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		size     int
		code     string
	}{
		{"no file", "", 0, "ERR_NO_FILE"},
		{"bad format", "notes.xyz", 10, "ERR_INVALID_FORMAT"},
		{"too large", "big.wav", 2 * 1024 * 1024, "ERR_FILE_TOO_LARGE"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		q := newFakeQueue()
		app := fiber.New(fiber.Config{BodyLimit: 8 * 1024 * 1024})
		app.Post("/upload", NewUploadHandler(q, testFormats, dir, 1, zap.NewNop().Sugar()).Handle)

		body, ct := multipartUpload(t, tc.filename, make([]byte, tc.size), "x")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)

		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, resp.StatusCode)
		}
		if out := decode(t, resp); out["code"] != tc.code {
			t.Errorf("%s: expected %s, got %v", tc.name, tc.code, out["code"])
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("%s: nothing should be saved", tc.name)
		}
	}
}

func TestUploadQueueFull(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	q.err = queue.ErrQueueFull
	app := fiber.New()
	app.Post("/upload", NewUploadHandler(q, testFormats, dir, 1, zap.NewNop().Sugar()).Handle)

	body, ct := multipartUpload(t, "a.wav", []byte("RIFF"), "")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("rejected upload should be removed, found %d files", len(entries))
	}
}

func TestGDriveDownloadsAndQueues(t *testing.T) {
	drive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "1AbCdEfGhIjKlMnOpQrStUvWxYz" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="all-hands.m4a"`)
		io.WriteString(w, "m4a bytes")
	}))
	defer drive.Close()

	dir := t.TempDir()
	q := newFakeQueue()
	h := NewGDriveHandler(q, testFormats, dir, 1, zap.NewNop().Sugar()).WithDownloadURL(drive.URL + "/uc?id=%s")
	app := fiber.New()
	app.Post("/gdrive", h.Handle)

	payload := `{"url":"https://drive.google.com/file/d/1AbCdEfGhIjKlMnOpQrStUvWxYz/view","name":"all hands"}`
	req := httptest.NewRequest(http.MethodPost, "/gdrive", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", resp.StatusCode, decode(t, resp))
	}

	job := q.only(t)
	if job.SourceType != types.SourceGDrive || !strings.HasSuffix(job.InputName, "_all-hands.m4a") {
		t.Errorf("unexpected job %+v", job)
	}
	data, _ := os.ReadFile(filepath.Join(dir, job.InputName))
	if string(data) != "m4a bytes" {
		t.Errorf("download not saved, got %q", data)
	}
}

func TestGDriveRejectsInvalidURL(t *testing.T) {
	app := fiber.New()
	app.Post("/gdrive", NewGDriveHandler(newFakeQueue(), testFormats, t.TempDir(), 1, zap.NewNop().Sugar()).Handle)

	req := httptest.NewRequest(http.MethodPost, "/gdrive", strings.NewReader(`{"url":"https://example.com/x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if out := decode(t, resp); resp.StatusCode != fiber.StatusBadRequest || out["code"] != "ERR_INVALID_URL" {
		t.Errorf("expected ERR_INVALID_URL, got %d %v", resp.StatusCode, out)
	}
}

func TestExtractGDriveFileID(t *testing.T) {
	cases := map[string]string{
		"https://drive.google.com/file/d/abc_DEF-123/view?usp=sharing": "abc_DEF-123",
		"https://drive.google.com/open?id=XYZ789":                      "XYZ789",
		"1AbCdEfGhIjKlMnOpQrStUvWxYz":                                  "1AbCdEfGhIjKlMnOpQrStUvWxYz",
		"https://example.com/audio.mp3":                                "",
	}
	for in, want := range cases {
		if got := extractGDriveFileID(in); got != want {
			t.Errorf("extractGDriveFileID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDownloadFilename(t *testing.T) {
	if got := downloadFilename("talk.ogg", `attachment; filename="x.wav"`); got != "talk.ogg" {
		t.Errorf("requested name should win, got %s", got)
	}
	if got := downloadFilename("", `attachment; filename="x.wav"`); got != "x.wav" {
		t.Errorf("expected disposition filename, got %s", got)
	}
	if got := downloadFilename("", ""); got != "gdrive_file.mp3" {
		t.Errorf("expected mp3 fallback, got %s", got)
	}
}

func TestJobsHandler(t *testing.T) {
	q := newFakeQueue()
	live := queue.NewJob("live", "standup.mp3", types.SourceUpload, "live_standup.mp3")
	live.UpdateProgress(2, 5)
	q.jobs["live"] = live

	store := &fakeStore{records: map[string]*types.TranscriptRecord{
		"old": {JobID: "old", Status: types.StatusCompleted},
	}}

	app := fiber.New()
	app.Get("/jobs/:id", NewJobsHandler(q, store).Get)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/jobs/live", nil))
	out := decode(t, resp)
	progress, _ := out["progress"].(map[string]interface{})
	if out["status"] != types.StatusQueued || progress["completed"] != float64(2) || progress["total"] != float64(5) {
		t.Errorf("unexpected live job %v", out)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/jobs/old", nil))
	if out := decode(t, resp); out["status"] != types.StatusCompleted {
		t.Errorf("expected stored record, got %v", out)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/jobs/nope", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTranscriptsHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "standup.txt")
	os.WriteFile(path, []byte("A\nB\nC"), 0o644)

	store := &fakeStore{records: map[string]*types.TranscriptRecord{
		"done":    {JobID: "done", Status: types.StatusCompleted, LocalPath: path},
		"pending": {JobID: "pending", Status: types.StatusProcessing},
	}}
	h := NewTranscriptsHandler(store)
	app := fiber.New()
	app.Get("/transcripts", h.List)
	app.Get("/transcripts/:id/text", h.Text)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/transcripts/done/text", nil))
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != "A\nB\nC" {
		t.Errorf("unexpected text response %d %q", resp.StatusCode, body)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/transcripts/pending/text", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404 for a job without output, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/transcripts/missing/text", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/transcripts?limit=1", nil))
	var list []types.TranscriptRecord
	json.NewDecoder(resp.Body).Decode(&list)
	if len(list) != 1 {
		t.Errorf("expected limit to apply, got %d records", len(list))
	}
}

func TestStreamProgressUntilTerminal(t *testing.T) {
	job := queue.NewJob("j", "a.mp3", types.SourceUpload, "a.mp3")

	var (
		mu   sync.Mutex
		sent []queue.JobSnapshot
	)
	write := func(v interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, v.(queue.JobSnapshot))
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- streamProgress(job, 5*time.Millisecond, write) }()

	job.UpdateProgress(1, 3)
	time.Sleep(20 * time.Millisecond)
	job.UpdateProgress(3, 3)
	job.Finish(&types.TranscriptionResult{ChunkCount: 3})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("streamProgress: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the job finished")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sent) < 2 {
		t.Fatalf("expected at least initial and final snapshots, got %d", len(sent))
	}
	if last := sent[len(sent)-1]; last.Status != types.StatusCompleted || last.Progress.Completed != 3 {
		t.Errorf("unexpected final snapshot %+v", last)
	}
	for i := 1; i < len(sent); i++ {
		if sent[i].Status == sent[i-1].Status && sent[i].Progress == sent[i-1].Progress {
			t.Errorf("duplicate snapshot sent at %d", i)
		}
	}
}

func TestStreamProgressWriteError(t *testing.T) {
	job := queue.NewJob("j", "a.mp3", types.SourceUpload, "a.mp3")
	boom := errors.New("client went away")
	if err := streamProgress(job, time.Millisecond, func(interface{}) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected write error, got %v", err)
	}
}
