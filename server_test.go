package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newTestServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	return NewServer(DefaultConfig(), NewWriterLogger(slog.LevelDebug, &logs)), &logs
}

func doRequest(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestServerHealth(t *testing.T) {
	srv, logs := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got healthResponse
	decodeBody(t, rec, &got)
	if diff := cmp.Diff(healthResponse{Status: "ok", Version: appVersion}, got); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}

	for _, want := range []string{"msg=request", "method=GET", "path=/healthz", "status=200"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("request log %q should contain %q", logs.String(), want)
		}
	}

	if rec := doRequest(t, srv, http.MethodPost, "/healthz", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz status = %d, want 405", rec.Code)
	}
}

func TestServerHealthReportsLogStats(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/diff/generate", `{"original":`)
	doRequest(t, srv, http.MethodPost, "/diff/summary", `{"diff":"x"}`)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	var got healthResponse
	decodeBody(t, rec, &got)
	want := LogStats{Warnings: 2}
	if diff := cmp.Diff(want, got.Log, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("log stats mismatch (-want +got):\n%s", diff)
	}
}

func TestServerGenerate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/diff/generate", map[string]any{
		"original": sceneOriginal,
		"modified": sceneModified,
		"filename": "scene.md",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var got struct {
		UnifiedDiff string            `json:"unified_diff"`
		Additions   int               `json:"additions"`
		Deletions   int               `json:"deletions"`
		Changes     int               `json:"changes"`
		Hunks       []json.RawMessage `json:"hunks"`
	}
	decodeBody(t, rec, &got)
	if got.UnifiedDiff != scenePatch {
		t.Errorf("unified_diff = %q, want %q", got.UnifiedDiff, scenePatch)
	}
	if got.Additions != 1 || got.Deletions != 1 || got.Changes != 2 || len(got.Hunks) != 1 {
		t.Errorf("stats = +%d -%d (%d changes, %d hunks)", got.Additions, got.Deletions, got.Changes, len(got.Hunks))
	}
}

func TestServerGenerateDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/diff/generate", map[string]any{
		"original":      sceneOriginal,
		"modified":      sceneModified,
		"context_lines": 0,
	})
	var got struct {
		UnifiedDiff string `json:"unified_diff"`
	}
	decodeBody(t, rec, &got)
	want := "--- a/scene.txt\n+++ b/scene.txt\n@@ -2 +2 @@\n-Line 2\n+Modified Line 2\n"
	if got.UnifiedDiff != want {
		t.Errorf("unified_diff = %q, want %q", got.UnifiedDiff, want)
	}
}

func TestServerBadRequests(t *testing.T) {
	testCases := []struct {
		name   string
		path   string
		body   string
		status int
		want   string
	}{
		{"negative context", "/diff/generate", `{"original":"a","modified":"b","context_lines":-1}`, http.StatusBadRequest, "context_lines must not be negative"},
		{"malformed JSON", "/diff/generate", `{"original":`, http.StatusBadRequest, "invalid JSON"},
		{"unknown field", "/diff/summary", `{"diff":"x"}`, http.StatusBadRequest, "invalid JSON"},
		{"unparseable patch", "/diff/apply", `{"original":"a\n","patch":"not a patch"}`, http.StatusBadRequest, "parse patch"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rec := doRequest(t, srv, http.MethodPost, tc.path, tc.body)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			var got errorResponse
			decodeBody(t, rec, &got)
			if !strings.Contains(got.Error, tc.want) {
				t.Errorf("error = %q, want it to contain %q", got.Error, tc.want)
			}
		})
	}
}

func TestServerRequestTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.MaxRequestBytes = 64
	srv := NewServer(cfg, NewWriterLogger(slog.LevelError, io.Discard))

	rec := doRequest(t, srv, http.MethodPost, "/diff/summary", map[string]string{
		"unified_diff": strings.Repeat("+x\n", 100),
	})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

type applyResult struct {
	Success     bool              `json:"success"`
	PatchedText *string           `json:"patched_text"`
	Errors      []json.RawMessage `json:"errors"`
	Applied     []struct {
		Index    int     `json:"hunk_index"`
		Position int     `json:"position"`
		Score    float64 `json:"score"`
		Fuzzy    bool    `json:"fuzzy"`
	} `json:"applied"`
	Preview *struct {
		UnifiedDiff string `json:"unified_diff"`
	} `json:"preview"`
}

func TestServerApply(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/diff/apply", map[string]any{
		"original": sceneOriginal,
		"patch":    scenePatch,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var got applyResult
	decodeBody(t, rec, &got)
	if !got.Success || got.PatchedText == nil || *got.PatchedText != sceneModified {
		t.Fatalf("apply = %+v, want success with the modified scene", got)
	}
	if len(got.Errors) != 0 || len(got.Applied) != 1 || got.Applied[0].Position != 0 {
		t.Errorf("errors = %d, applied = %+v", len(got.Errors), got.Applied)
	}
	if got.Preview == nil || !strings.Contains(got.Preview.UnifiedDiff, "+Modified Line 2\n") {
		t.Errorf("preview = %+v, want the applied change", got.Preview)
	}
}

func TestServerApplyPreviewFilename(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		header   string
	}{
		{"named document", "act1/kitchen.md", "--- a/act1/kitchen.md\n+++ b/act1/kitchen.md\n"},
		{"unnamed document", "", "--- a/scene.txt\n+++ b/scene.txt\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			body := map[string]any{"original": sceneOriginal, "patch": scenePatch}
			if tc.filename != "" {
				body["filename"] = tc.filename
			}
			rec := doRequest(t, srv, http.MethodPost, "/diff/apply", body)
			var got applyResult
			decodeBody(t, rec, &got)
			if got.Preview == nil {
				t.Fatalf("apply = %+v, want a preview", got)
			}
			if !strings.HasPrefix(got.Preview.UnifiedDiff, tc.header) {
				t.Errorf("preview = %q, want it to start with %q", got.Preview.UnifiedDiff, tc.header)
			}
		})
	}
}

func TestServerApplyDrifted(t *testing.T) {
	drifted := "Prologue.\n" + sceneOriginal

	t.Run("fuzzy by default", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/diff/apply", map[string]any{
			"original": drifted,
			"patch":    scenePatch,
		})
		var got applyResult
		decodeBody(t, rec, &got)
		if !got.Success || got.PatchedText == nil || *got.PatchedText != "Prologue.\n"+sceneModified {
			t.Fatalf("apply = %+v", got)
		}
		if len(got.Applied) != 1 || got.Applied[0].Position != 1 || !got.Applied[0].Fuzzy {
			t.Errorf("applied = %+v, want one fuzzy hunk at position 1", got.Applied)
		}
	})

	t.Run("exact", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := doRequest(t, srv, http.MethodPost, "/diff/apply", map[string]any{
			"original": drifted,
			"patch":    scenePatch,
			"fuzzy":    false,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var got applyResult
		decodeBody(t, rec, &got)
		if got.Success || got.PatchedText != nil || got.Preview != nil {
			t.Fatalf("apply = %+v, want failure without text", got)
		}
		if len(got.Errors) != 1 {
			t.Fatalf("errors = %d, want 1", len(got.Errors))
		}
		var applyErr map[string]any
		if err := json.Unmarshal(got.Errors[0], &applyErr); err != nil {
			t.Fatal(err)
		}
		if applyErr["kind"] != "context_mismatch" {
			t.Errorf("error kind = %v, want context_mismatch", applyErr["kind"])
		}
	})
}

func TestServerSideBySide(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/diff/side-by-side", map[string]any{
		"original": sceneOriginal,
		"modified": sceneModified,
		"width":    4,
	})
	var got struct {
		Lines []map[string]any `json:"lines"`
	}
	decodeBody(t, rec, &got)

	want := []map[string]any{
		{"left": "Line", "right": "Line", "type": "equal", "left_line": 1.0, "right_line": 1.0},
		{"left": "Line", "right": "Modi", "type": "modify", "left_line": 2.0, "right_line": 2.0},
		{"left": "Line", "right": "Line", "type": "equal", "left_line": 3.0, "right_line": 3.0},
	}
	if diff := cmp.Diff(want, got.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestServerSummary(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/diff/summary", map[string]string{"unified_diff": scenePatch})
	var got struct {
		TotalChanges int      `json:"total_changes"`
		Additions    int      `json:"additions"`
		Deletions    int      `json:"deletions"`
		AddedLines   []string `json:"added_lines"`
		DeletedLines []string `json:"deleted_lines"`
	}
	decodeBody(t, rec, &got)

	if got.TotalChanges != 2 || got.Additions != 1 || got.Deletions != 1 {
		t.Errorf("summary counts = %+v", got)
	}
	if diff := cmp.Diff([]string{"Modified Line 2"}, got.AddedLines); diff != "" {
		t.Errorf("added_lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Line 2"}, got.DeletedLines); diff != "" {
		t.Errorf("deleted_lines mismatch (-want +got):\n%s", diff)
	}
}

func TestServerSuggestions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/suggestions/apply", map[string]any{
		"text": "The night was dark.\nShe walked home.\n",
		"suggestions": []map[string]any{
			{"line_number": 1, "original": "walked", "suggested": "ran", "rationale": "pace"},
			{"line_number": 0, "original": "", "suggested": "x"},
		},
	})
	var got struct {
		Text    string `json:"text"`
		Applied []struct {
			Index int `json:"index"`
			Line  int `json:"line"`
		} `json:"applied"`
		Skipped []struct {
			Index  int    `json:"index"`
			Reason string `json:"reason"`
		} `json:"skipped"`
	}
	decodeBody(t, rec, &got)

	if got.Text != "The night was dark.\nShe ran home.\n" {
		t.Errorf("text = %q", got.Text)
	}
	if len(got.Applied) != 1 || got.Applied[0].Index != 0 || got.Applied[0].Line != 1 {
		t.Errorf("applied = %+v", got.Applied)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Index != 1 || got.Skipped[0].Reason != "empty original text" {
		t.Errorf("skipped = %+v", got.Skipped)
	}
}
