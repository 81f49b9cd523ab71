package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bioflowy/flowy/pkg/wdl/store"
)

const noCallWDL = `version 1.0

workflow w {
  input {
    Int n
  }
  output {
    Int doubled = n * 2
  }
}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(store.NewMemory(), Config{RunDir: t.TempDir()})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestSubmitAndPollRun(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/runs", submitRequest{
		WDL:    noCallWDL,
		Inputs: map[string]any{"n": float64(21)},
	})
	if resp.StatusCode != 200 {
		t.Fatalf("POST /runs status = %d", resp.StatusCode)
	}
	var submitted struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatalf("decoding submit response: %v", err)
	}
	if submitted.RunID == "" {
		t.Fatal("expected a non-empty run_id")
	}

	deadline := time.Now().Add(5 * time.Second)
	var last fiberRun
	for time.Now().Before(deadline) {
		resp := doJSON(t, srv, http.MethodGet, "/runs/"+submitted.RunID, nil)
		if resp.StatusCode != 200 {
			t.Fatalf("GET /runs/:id status = %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&last); err != nil {
			t.Fatalf("decoding run: %v", err)
		}
		if last.Status == "succeeded" || last.Status == "failed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if last.Status != "succeeded" {
		t.Fatalf("run ended with status %q, error %q", last.Status, last.Error)
	}
	if last.Outputs["doubled"] != float64(42) {
		t.Errorf("outputs[doubled] = %v, want 42", last.Outputs["doubled"])
	}
}

func TestSubmitInvalidDocument(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv, http.MethodPost, "/runs", submitRequest{WDL: "not a wdl document"})
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv, http.MethodGet, "/runs/does-not-exist", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCancelRunNotInFlight(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv, http.MethodDelete, "/runs/does-not-exist", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

type fiberRun struct {
	Status  string         `json:"status"`
	Outputs map[string]any `json:"outputs"`
	Error   string         `json:"error"`
}
