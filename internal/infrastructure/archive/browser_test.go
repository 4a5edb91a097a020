package archive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const indexPage = `<html><body><h1>Index of /experiments/E-MTAB-513</h1><pre>
<a href="../">../</a>
<a href="?C=N;O=D">Name</a>
<a href="E-MTAB-513-tpms.tsv">E-MTAB-513-tpms.tsv</a>  01-Jan-2024
<a href="E-MTAB-513.condensed-sdrf.tsv">E-MTAB-513.condensed-sdrf.tsv</a>  01-Jan-2024
<a href="archive/">archive/</a>
</pre></body></html>`

func TestListFilesParsesIndexPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/E-MTAB-513/" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, indexPage)
	}))
	defer server.Close()

	browser := New(server.URL, testLogger(), Options{})
	files, err := browser.ListFiles(context.Background(), "E-MTAB-513")
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	want := []string{"E-MTAB-513-tpms.tsv", "E-MTAB-513.condensed-sdrf.tsv"}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, files)
		}
	}
}

func TestListFilesFallsBackToHeadProbes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			switch r.URL.Path {
			case "/E-X-1/E-X-1-tpms.tsv", "/E-X-1/E-X-1.condensed-sdrf.tsv":
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
			return
		}
		// The index itself is forbidden, as the mirror sometimes is.
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	browser := New(server.URL, testLogger(), Options{})
	files, err := browser.ListFiles(context.Background(), "E-X-1")
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected two probed files, got %v", files)
	}
	if files[0] != "E-X-1-tpms.tsv" {
		t.Fatalf("expected probe order to follow the well-known patterns, got %v", files)
	}
}

func TestListFilesUnavailableWhenIndexAndProbesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	browser := New(server.URL, testLogger(), Options{})
	_, err := browser.ListFiles(context.Background(), "E-X-1")
	if !domain.IsKind(err, domain.ErrDirectoryUnavailable) {
		t.Fatalf("expected DirectoryUnavailable, got %v", err)
	}
}

func TestFetchStreamsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/E-X-1/E-X-1-tpms.tsv" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "Gene\tTPM\nAT1G01010\t4.2\n")
	}))
	defer server.Close()

	browser := New(server.URL, testLogger(), Options{})
	body, err := browser.Fetch(context.Background(), "E-X-1", "E-X-1-tpms.tsv")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(content), "AT1G01010") {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestFetchNon2xxIsDownloadFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	browser := New(server.URL, testLogger(), Options{})
	_, err := browser.Fetch(context.Background(), "E-X-1", "missing.tsv")
	if !domain.IsKind(err, domain.ErrDownloadFailed) {
		t.Fatalf("expected DownloadFailed, got %v", err)
	}
}

func TestFilenameFromHref(t *testing.T) {
	cases := []struct {
		href string
		want string
		ok   bool
	}{
		{"E-MTAB-513-tpms.tsv", "E-MTAB-513-tpms.tsv", true},
		{"../", "", false},
		{"?C=N;O=D", "", false},
		{"archive/", "", false},
		{"https://elsewhere.example/file.tsv", "", false},
		{"/absolute/path.tsv", "", false},
	}
	for _, tc := range cases {
		got, ok := filenameFromHref(tc.href)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("href %q: expected (%q,%v), got (%q,%v)", tc.href, tc.want, tc.ok, got, ok)
		}
	}
}
