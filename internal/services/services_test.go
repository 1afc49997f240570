package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"coursehub-backend-go/internal/models"
	"coursehub-backend-go/internal/store"
)

func TestCleanFileName(t *testing.T) {
	cases := map[string]string{
		"notes.pdf":           "notes.pdf",
		"my notes (v2).pdf":   "my-notes-v2-.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\a\deck.ppt`: "deck.ppt",
		"":                    "file",
		"...":                 "file",
		"лекция 1.docx":       "лекция-1.docx",
	}
	for in, want := range cases {
		if got := CleanFileName(in); got != want {
			t.Errorf("CleanFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUploadsSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	u := Uploads{Dir: dir, URLPrefix: "/uploads/"}

	res, err := u.Save("slides.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(res.FileName, "-slides.pdf") {
		t.Fatalf("file name = %q", res.FileName)
	}
	if res.FileURL != "/uploads/"+res.FileName || res.DownloadURL != res.FileURL {
		t.Fatalf("urls = %q %q", res.FileURL, res.DownloadURL)
	}
	content, err := os.ReadFile(filepath.Join(dir, res.FileName))
	if err != nil || string(content) != "%PDF-1.4" || res.SizeBytes != 8 {
		t.Fatalf("content=%q size=%d err=%v", content, res.SizeBytes, err)
	}
}

func TestUploadsSaveRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	u := Uploads{Dir: dir, URLPrefix: "/uploads"}
	_, err := u.Save("empty.txt", strings.NewReader(""))
	serr, ok := AsServiceError(err)
	if !ok || serr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("empty upload left files: %v", entries)
	}
}

func TestUploadsPath(t *testing.T) {
	dir := t.TempDir()
	u := Uploads{Dir: dir, URLPrefix: "/uploads"}
	if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path, err := u.Path("a.pdf")
	if err != nil || path != filepath.Join(dir, "a.pdf") {
		t.Fatalf("path=%q err=%v", path, err)
	}
	for _, name := range []string{"", "missing.pdf", "../a.pdf", "sub", ".hidden", "sub/a.pdf"} {
		_, err := u.Path(name)
		serr, ok := AsServiceError(err)
		if !ok || serr.Status != http.StatusNotFound {
			t.Errorf("Path(%q) err = %v, want not found", name, err)
		}
	}
}

func TestTrimStringKeepsRunesWhole(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  short  ", 10, "short"},
		{"abcdef", 3, "abc"},
		{"héllo", 2, "h"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
	}
	for _, tc := range cases {
		got := trimString(tc.in, tc.max)
		if got != tc.want || !utf8.ValidString(got) {
			t.Errorf("trimString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestAsServiceErrorUnwraps(t *testing.T) {
	err := WrapError(ErrNotFound("Course not found"), "lookup")
	serr, ok := AsServiceError(err)
	if !ok || serr.Status != http.StatusNotFound || serr.Message != "Course not found" {
		t.Fatalf("serr=%+v ok=%v", serr, ok)
	}
	if _, ok := AsServiceError(errors.New("boom")); ok {
		t.Fatalf("plain error treated as service error")
	}
	if WrapError(nil, "x") != nil {
		t.Fatalf("WrapError(nil) != nil")
	}
}

func TestBuildAnalyticsCountsContent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	pub, _ := st.Courses().Create(ctx, models.CourseInput{Title: "a", IsPublished: true})
	_, _ = st.Courses().Create(ctx, models.CourseInput{Title: "b"})
	_, _ = st.Materials().Create(ctx, models.MaterialInput{Title: "m", Type: models.MaterialPDF, CourseID: pub.ID, IsPublished: true})
	_, _ = st.Materials().Create(ctx, models.MaterialInput{Title: "n", Type: models.MaterialPDF, CourseID: pub.ID})

	visits := NewVisitTracker(10)
	visits.Track("127.0.0.1", "test", "/", "")

	got, err := BuildAnalytics(ctx, st, visits)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got.TotalCourses != 2 || got.PublishedCourses != 1 || got.DraftCourses != 1 {
		t.Fatalf("course counts = %+v", got)
	}
	if got.TotalMaterials != 2 || got.PublishedMaterials != 1 {
		t.Fatalf("material counts = %+v", got)
	}
	if got.SiteVisits != 1 || got.TotalViews != 12847 || got.ViewsChange != 23.4 {
		t.Fatalf("figures = %+v", got)
	}
}

func TestVisitTrackerBoundsHistory(t *testing.T) {
	tracker := NewVisitTracker(3)
	for _, path := range []string{"/a", "/b", "/c", "/d", "/e"} {
		tracker.Track("", "", path, "")
	}
	if tracker.Count() != 5 {
		t.Fatalf("count = %d", tracker.Count())
	}
	recent := tracker.Recent(0)
	if len(recent) != 3 || recent[0].Path != "/c" || recent[2].Path != "/e" {
		t.Fatalf("recent = %+v", recent)
	}
	if two := tracker.Recent(2); len(two) != 2 || two[0].Path != "/d" {
		t.Fatalf("recent(2) = %+v", two)
	}
	long := tracker.Track("", strings.Repeat("x", 600), "", "")
	if len(long.UserAgent) != 512 {
		t.Fatalf("user agent not trimmed: %d", len(long.UserAgent))
	}
}

func TestMetricsHistoryRing(t *testing.T) {
	h := NewMetricsHistory(3)
	if got := h.Latest(10); len(got) != 0 {
		t.Fatalf("empty history returned %d", len(got))
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.Add(MetricSample{CapturedAt: base.Add(time.Duration(i) * time.Second)})
	}
	got := h.Latest(0)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, sample := range got {
		want := base.Add(time.Duration(i+2) * time.Second)
		if !sample.CapturedAt.Equal(want) {
			t.Fatalf("sample %d at %v, want %v", i, sample.CapturedAt, want)
		}
	}
	last := h.Latest(1)
	if len(last) != 1 || !last[0].CapturedAt.Equal(base.Add(4*time.Second)) {
		t.Fatalf("latest(1) = %+v", last)
	}
}

func TestCaptureMetrics(t *testing.T) {
	sample, err := CaptureMetrics(t.TempDir())
	if err != nil {
		t.Skipf("host metrics unavailable: %v", err)
	}
	if sample.SystemMemoryTotal <= 0 || sample.CapturedAt.IsZero() {
		t.Fatalf("sample = %+v", sample)
	}
}
