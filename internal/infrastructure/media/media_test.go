package media

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ccms/internal/config"
	"ccms/internal/domain"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fakePNG(size int) []byte {
	return append(append([]byte{}, pngSignature...), bytes.Repeat([]byte{0}, size-len(pngSignature))...)
}

func TestExtractImageURLs(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	  <a class="iusc" m='{"murl":"https://cdn.example/viage-lobby.jpg"}'></a>
	  <img src="https://www.gstatic.com/images/x.png">
	  <img src="https://cdn.example/site-logo.png">
	  <img data-src="https://cdn.example/viage-games.webp" src="data:image/gif;base64,AAAA">
	  <img src="https://cdn.example/viage-lobby.jpg">
	  <script>var imgs = ["https://img.example/slots.png?w=800", "https://img.example/arrow-left.png"];</script>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := extractImageURLs(doc, 6)
	want := []string{
		"https://cdn.example/viage-lobby.jpg",
		"https://cdn.example/viage-games.webp",
		"https://img.example/slots.png?w=800",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("url %d = %s, want %s", i, got[i], want[i])
		}
	}

	if limited := extractImageURLs(doc, 1); len(limited) != 1 {
		t.Fatalf("limit not applied: %v", limited)
	}
}

func TestFindImagesQueriesSearchPage(t *testing.T) {
	t.Parallel()

	var gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<img src="https://cdn.example/a.jpg">`))
	}))
	defer server.Close()

	finder := NewImageSearch(config.ImagesConfig{
		SearchURL: server.URL + "/images?q={query}",
		UserAgent: "ccms-test",
	}, server.Client())

	urls, err := finder.FindImages(context.Background(), "viage casino", 6)
	if err != nil {
		t.Fatalf("find images: %v", err)
	}
	if gotQuery != "viage casino" || gotUA != "ccms-test" {
		t.Fatalf("unexpected request q=%q ua=%q", gotQuery, gotUA)
	}
	if len(urls) != 1 || urls[0] != "https://cdn.example/a.jpg" {
		t.Fatalf("unexpected urls %v", urls)
	}
}

func TestDownloaderValidatesImages(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/good.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(fakePNG(20000))
	})
	mux.HandleFunc("/sniffed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(fakePNG(20000))
	})
	mux.HandleFunc("/tiny.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(fakePNG(100))
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(bytes.Repeat([]byte("<html></html>"), 2000))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	d := NewDownloader(config.ImagesConfig{Dir: dir}, server.Client(), nil)

	assets, errs := d.Fetch(context.Background(), []string{
		server.URL + "/good.png",
		server.URL + "/sniffed",
		server.URL + "/tiny.png",
		server.URL + "/page.html",
	}, "viage", 10240)

	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d (errs %v)", len(assets), errs)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if assets[0].Filename != "viage_1.png" || assets[1].Filename != "viage_2.png" {
		t.Fatalf("unexpected filenames %s, %s", assets[0].Filename, assets[1].Filename)
	}
	if assets[1].ContentType != "image/png" {
		t.Fatalf("sniffed content type = %s", assets[1].ContentType)
	}
	if _, err := os.Stat(filepath.Join(dir, "viage_1.png")); err != nil {
		t.Fatalf("image not written: %v", err)
	}
}

func TestExtensionFor(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"image/jpeg":            ".jpg",
		"image/png":             ".png",
		"image/webp":            ".webp",
		"image/x-unknown-thing": ".jpg",
	}
	for ct, want := range cases {
		if got := extensionFor(ct); got != want {
			t.Fatalf("extensionFor(%s) = %s, want %s", ct, got, want)
		}
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiveKeysByPrefix(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{}
	archive := &S3Archive{client: fake, bucket: "media", prefix: "ccms/media"}

	key, err := archive.Archive(context.Background(), domain.MediaAsset{
		Filename:    "viage_1.png",
		ContentType: "image/png",
		Data:        fakePNG(64),
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if key != "ccms/media/viage_1.png" {
		t.Fatalf("unexpected key %s", key)
	}
	if aws.ToString(fake.input.Bucket) != "media" || aws.ToString(fake.input.ContentType) != "image/png" {
		t.Fatalf("unexpected input %+v", fake.input)
	}

	if _, err := archive.Archive(context.Background(), domain.MediaAsset{Filename: "empty.png"}); err == nil {
		t.Fatalf("expected error for empty asset")
	}
}
