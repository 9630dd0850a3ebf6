package generator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateImage(t *testing.T) {
	imagesDir := t.TempDir()

	var mux http.ServeMux
	server := httptest.NewServer(&mux)
	defer server.Close()

	polls := 0
	mux.HandleFunc("POST /predictions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "pred-1", "status": "starting"}`)
	})
	mux.HandleFunc("GET /predictions/pred-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			fmt.Fprint(w, `{"id": "pred-1", "status": "processing"}`)
			return
		}
		fmt.Fprintf(w, `{"id": "pred-1", "status": "succeeded", "output": ["%s/image.webp"]}`, server.URL)
	})
	mux.HandleFunc("GET /image.webp", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("webp-bytes"))
	})

	client := NewReplicateClient("test-key", "test/image-model", imagesDir)
	client.baseURL = server.URL
	client.PollInterval = time.Millisecond

	filename, err := client.GenerateImage(context.Background(), "empty shelves", "penurie-de-moutarde")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(filename, "penurie-de-moutarde-") || !strings.HasSuffix(filename, ".webp") {
		t.Errorf("unexpected filename %q", filename)
	}

	data, err := os.ReadFile(filepath.Join(imagesDir, filename))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "webp-bytes" {
		t.Errorf("unexpected image data %q", data)
	}
	if polls != 2 {
		t.Errorf("expected 2 polls, got %d", polls)
	}
}

func TestGenerateImagePredictionFails(t *testing.T) {
	var mux http.ServeMux
	server := httptest.NewServer(&mux)
	defer server.Close()

	mux.HandleFunc("POST /predictions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "pred-2", "status": "starting"}`)
	})
	mux.HandleFunc("GET /predictions/pred-2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "pred-2", "status": "failed", "error": "NSFW content detected"}`)
	})

	client := NewReplicateClient("test-key", "test/image-model", t.TempDir())
	client.baseURL = server.URL
	client.PollInterval = time.Millisecond

	_, err := client.GenerateImage(context.Background(), "prompt", "slug")
	if err == nil {
		t.Fatal("expected error for failed prediction")
	}
	if !strings.Contains(err.Error(), "NSFW") {
		t.Errorf("expected prediction error message, got %v", err)
	}
}

func TestGenerateImageTimesOut(t *testing.T) {
	var mux http.ServeMux
	server := httptest.NewServer(&mux)
	defer server.Close()

	mux.HandleFunc("POST /predictions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "pred-3", "status": "starting"}`)
	})
	mux.HandleFunc("GET /predictions/pred-3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "pred-3", "status": "processing"}`)
	})

	client := NewReplicateClient("test-key", "test/image-model", t.TempDir())
	client.baseURL = server.URL
	client.PollInterval = time.Millisecond
	client.MaxPollAttempts = 3

	if _, err := client.GenerateImage(context.Background(), "prompt", "slug"); err == nil {
		t.Error("expected timeout error")
	}
}

func TestFirstOutputURLSingleString(t *testing.T) {
	url, err := firstOutputURL([]byte(`"https://example.com/a.webp"`))
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://example.com/a.webp" {
		t.Errorf("unexpected url %q", url)
	}
}
