package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestPublishArticle(t *testing.T) {
	staticDir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/articles/penurie-de-moutarde.html" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html>rendered article</html>")
	}))
	defer server.Close()

	p := NewStaticPublisher(server.URL, staticDir)
	p.PublishArticle(context.Background(), "penurie-de-moutarde")

	data, err := os.ReadFile(filepath.Join(staticDir, "articles", "penurie-de-moutarde.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<html>rendered article</html>" {
		t.Errorf("unexpected snapshot content %q", data)
	}
}

func TestPublishArticleFailureLeavesNoFile(t *testing.T) {
	staticDir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewStaticPublisher(server.URL, staticDir)
	p.PublishArticle(context.Background(), "broken")

	if _, err := os.Stat(filepath.Join(staticDir, "articles", "broken.html")); !os.IsNotExist(err) {
		t.Error("failed snapshot should not leave a file behind")
	}
}

func TestPublishHomepage(t *testing.T) {
	staticDir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>homepage</html>")
	}))
	defer server.Close()

	p := NewStaticPublisher(server.URL+"/", staticDir)
	p.PublishHomepage(context.Background())

	data, err := os.ReadFile(filepath.Join(staticDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<html>homepage</html>" {
		t.Errorf("unexpected snapshot content %q", data)
	}
}
