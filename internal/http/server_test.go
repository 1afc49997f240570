package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coursehub-backend-go/internal/config"
	"coursehub-backend-go/internal/logger"
	"coursehub-backend-go/internal/models"
	"coursehub-backend-go/internal/services"
	"coursehub-backend-go/internal/store"
)

type testAPI struct {
	t      *testing.T
	server *Server
	ts     *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := config.Config{
		StoreDriver:        config.DriverMemory,
		UploadDir:          t.TempDir(),
		UploadURLPrefix:    "/uploads",
		UploadMaxBytes:     1 << 20,
		MetricsHistorySize: 10,
		VisitHistorySize:   100,
	}
	log := logger.Nop()
	server := NewServer(store.NewMemoryStore(), cfg, services.NewMetricsHistory(cfg.MetricsHistorySize), services.NewMetricsHub(log), log)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return &testAPI{t: t, server: server, ts: ts}
}

func (a *testAPI) do(method, path string, body interface{}, out interface{}) int {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.ts.URL+path, reader)
	if err != nil {
		a.t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (a *testAPI) createCourse(title string, published bool) models.Course {
	a.t.Helper()
	var resp CourseResponse
	status := a.do(http.MethodPost, "/api/courses", map[string]interface{}{
		"title":       title,
		"description": title + " description",
		"isPublished": published,
	}, &resp)
	if status != http.StatusCreated || !resp.Success {
		a.t.Fatalf("create course status = %d success = %v", status, resp.Success)
	}
	return resp.Course
}

func (a *testAPI) createMaterial(courseID, title, kind string, published bool) models.StudyMaterial {
	a.t.Helper()
	var resp MaterialResponse
	status := a.do(http.MethodPost, "/api/materials", map[string]interface{}{
		"title":       title,
		"type":        kind,
		"courseId":    courseID,
		"isPublished": published,
	}, &resp)
	if status != http.StatusCreated || !resp.Success {
		a.t.Fatalf("create material status = %d success = %v", status, resp.Success)
	}
	return resp.Material
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	var resp MessageResponse
	if status := api.do(http.MethodGet, "/healthz", nil, &resp); status != http.StatusOK || !resp.Success {
		t.Fatalf("healthz status = %d success = %v", status, resp.Success)
	}
}

func TestCreateCourseRequiresTitle(t *testing.T) {
	api := newTestAPI(t)
	var resp ErrorResponse
	status := api.do(http.MethodPost, "/api/courses", map[string]interface{}{"title": "   "}, &resp)
	if status != http.StatusBadRequest || resp.Success || resp.Message != "Title is required" {
		t.Fatalf("got %d %+v", status, resp)
	}
}

func TestCreateCourseRejectsMalformedJSON(t *testing.T) {
	api := newTestAPI(t)
	resp, err := http.Post(api.ts.URL+"/api/courses", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPublishScenario(t *testing.T) {
	api := newTestAPI(t)
	draft := api.createCourse("Go Basics", false)

	var list CoursesResponse
	api.do(http.MethodGet, "/api/courses", nil, &list)
	if len(list.Courses) != 0 {
		t.Fatalf("published list = %d, want 0", len(list.Courses))
	}
	api.do(http.MethodGet, "/api/admin/courses", nil, &list)
	if len(list.Courses) != 1 {
		t.Fatalf("admin list = %d, want 1", len(list.Courses))
	}

	var updated CourseResponse
	status := api.do(http.MethodPut, "/api/courses/"+draft.ID, map[string]interface{}{"isPublished": true}, &updated)
	if status != http.StatusOK || !updated.Course.IsPublished {
		t.Fatalf("publish status = %d course = %+v", status, updated.Course)
	}
	if updated.Course.Title != "Go Basics" {
		t.Fatalf("title changed to %q", updated.Course.Title)
	}
	if !updated.Course.UpdatedAt.After(draft.UpdatedAt) && !updated.Course.UpdatedAt.Equal(draft.UpdatedAt) {
		t.Fatalf("updatedAt went backwards")
	}

	api.do(http.MethodGet, "/api/courses", nil, &list)
	if len(list.Courses) != 1 || list.Courses[0].ID != draft.ID {
		t.Fatalf("published list = %+v", list.Courses)
	}
}

func TestCourseNotFound(t *testing.T) {
	api := newTestAPI(t)
	var resp ErrorResponse
	if status := api.do(http.MethodGet, "/api/courses/404", nil, &resp); status != http.StatusNotFound || resp.Message != "Course not found" {
		t.Fatalf("get: %d %+v", status, resp)
	}
	if status := api.do(http.MethodPut, "/api/courses/404", map[string]interface{}{"title": "x"}, &resp); status != http.StatusNotFound {
		t.Fatalf("put: %d", status)
	}
	if status := api.do(http.MethodDelete, "/api/courses/404", nil, &resp); status != http.StatusNotFound {
		t.Fatalf("delete: %d", status)
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	api := newTestAPI(t)
	cases := []struct {
		path    string
		body    map[string]interface{}
		message string
	}{
		{path: "/api/courses/999", body: map[string]interface{}{"title": "x"}, message: "Course not found"},
		{path: "/api/materials/999", body: map[string]interface{}{"title": "x"}, message: "Material not found"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			var resp ErrorResponse
			status := api.do(http.MethodPut, tc.path, tc.body, &resp)
			if status != http.StatusNotFound || resp.Success || resp.Message != tc.message {
				t.Fatalf("got %d %+v", status, resp)
			}
		})
	}
	var courses CoursesResponse
	api.do(http.MethodGet, "/api/admin/courses", nil, &courses)
	if len(courses.Courses) != 0 {
		t.Fatalf("update of missing id created %d courses", len(courses.Courses))
	}
}

func TestUpdateClearsOptionalFieldsWithNull(t *testing.T) {
	api := newTestAPI(t)
	var created CourseResponse
	api.do(http.MethodPost, "/api/courses", map[string]interface{}{"title": "A", "thumbnail": "x.jpg"}, &created)
	if created.Course.Thumbnail == nil {
		t.Fatalf("thumbnail not stored")
	}

	var kept CourseResponse
	api.do(http.MethodPut, "/api/courses/"+created.Course.ID, map[string]interface{}{"title": "B"}, &kept)
	if kept.Course.Thumbnail == nil || *kept.Course.Thumbnail != "x.jpg" {
		t.Fatalf("absent thumbnail changed: %v", kept.Course.Thumbnail)
	}
	var cleared CourseResponse
	if status := api.do(http.MethodPut, "/api/courses/"+created.Course.ID, map[string]interface{}{"thumbnail": nil}, &cleared); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if cleared.Course.Thumbnail != nil || cleared.Course.Title != "B" {
		t.Fatalf("course after null thumbnail = %+v", cleared.Course)
	}

	var material MaterialResponse
	api.do(http.MethodPost, "/api/materials", map[string]interface{}{
		"title": "M", "type": "pdf", "fileUrl": "/uploads/a.pdf", "downloadUrl": "/uploads/a.pdf",
	}, &material)
	var updated MaterialResponse
	api.do(http.MethodPut, "/api/materials/"+material.Material.ID, map[string]interface{}{"fileUrl": nil, "downloadUrl": nil}, &updated)
	if updated.Material.FileURL != nil || updated.Material.DownloadURL != nil {
		t.Fatalf("urls not cleared: %+v", updated.Material)
	}
}

func TestUpdateMaterialTrimsCourseID(t *testing.T) {
	api := newTestAPI(t)
	course := api.createCourse("Course", true)
	material := api.createMaterial("", "Loose", "link", true)

	var updated MaterialResponse
	api.do(http.MethodPut, "/api/materials/"+material.ID, map[string]interface{}{"courseId": "  " + course.ID + " "}, &updated)
	if updated.Material.CourseID != course.ID {
		t.Fatalf("courseId = %q, want %q", updated.Material.CourseID, course.ID)
	}
	var got CourseResponse
	api.do(http.MethodGet, "/api/courses/"+course.ID, nil, &got)
	if len(got.Course.Materials) != 1 || got.Course.Materials[0].ID != material.ID {
		t.Fatalf("course materials = %+v", got.Course.Materials)
	}
}

func TestDeleteCourseCascadesMaterials(t *testing.T) {
	api := newTestAPI(t)
	course := api.createCourse("Course", true)
	other := api.createCourse("Other", true)
	api.createMaterial(course.ID, "Slides", "pdf", true)
	kept := api.createMaterial(other.ID, "Video", "video", true)

	var got CourseResponse
	api.do(http.MethodGet, "/api/courses/"+course.ID, nil, &got)
	if len(got.Course.Materials) != 1 {
		t.Fatalf("course materials = %d, want 1", len(got.Course.Materials))
	}

	var msg MessageResponse
	if status := api.do(http.MethodDelete, "/api/courses/"+course.ID, nil, &msg); status != http.StatusOK || msg.Message != "Course deleted" {
		t.Fatalf("delete: %d %+v", status, msg)
	}
	var materials MaterialsResponse
	api.do(http.MethodGet, "/api/admin/materials", nil, &materials)
	if len(materials.Materials) != 1 || materials.Materials[0].ID != kept.ID {
		t.Fatalf("remaining materials = %+v", materials.Materials)
	}
}

func TestDeleteMaterial(t *testing.T) {
	api := newTestAPI(t)
	course := api.createCourse("Course", true)
	material := api.createMaterial(course.ID, "Notes", "document", true)

	var msg MessageResponse
	if status := api.do(http.MethodDelete, "/api/materials/"+material.ID, nil, &msg); status != http.StatusOK || !msg.Success || msg.Message != "Material deleted" {
		t.Fatalf("delete existing: %d %+v", status, msg)
	}
	var errResp ErrorResponse
	if status := api.do(http.MethodDelete, "/api/materials/"+material.ID, nil, &errResp); status != http.StatusNotFound || errResp.Message != "Material not found" {
		t.Fatalf("delete missing: %d %+v", status, errResp)
	}
	var got CourseResponse
	if status := api.do(http.MethodGet, "/api/courses/"+course.ID, nil, &got); status != http.StatusOK {
		t.Fatalf("course gone after material delete: %d", status)
	}
}

func TestCreateMaterialValidatesType(t *testing.T) {
	api := newTestAPI(t)
	var resp ErrorResponse
	status := api.do(http.MethodPost, "/api/materials", map[string]interface{}{"title": "x", "type": "podcast"}, &resp)
	if status != http.StatusBadRequest || resp.Message != "Unknown material type" {
		t.Fatalf("got %d %+v", status, resp)
	}
	material := api.createMaterial("", "Loose", "PDF", false)
	if material.Type != models.MaterialPDF {
		t.Fatalf("type = %q, want pdf", material.Type)
	}
}

func TestCourseMaterialsHidesDrafts(t *testing.T) {
	api := newTestAPI(t)
	course := api.createCourse("Course", true)
	draftCourse := api.createCourse("Draft", false)
	visible := api.createMaterial(course.ID, "Visible", "link", true)
	api.createMaterial(course.ID, "Hidden", "link", false)

	var materials MaterialsResponse
	if status := api.do(http.MethodGet, "/api/courses/"+course.ID+"/materials", nil, &materials); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(materials.Materials) != 1 || materials.Materials[0].ID != visible.ID {
		t.Fatalf("materials = %+v", materials.Materials)
	}
	var errResp ErrorResponse
	if status := api.do(http.MethodGet, "/api/courses/"+draftCourse.ID+"/materials", nil, &errResp); status != http.StatusNotFound {
		t.Fatalf("draft course status = %d, want 404", status)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	api := newTestAPI(t)
	var resp ErrorResponse
	if status := api.do(http.MethodGet, "/api/nope", nil, &resp); status != http.StatusNotFound || resp.Success {
		t.Fatalf("got %d %+v", status, resp)
	}
}

func uploadRequest(t *testing.T, url, field, name string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if field != "" {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = part.Write(content)
	} else {
		_ = writer.WriteField("note", "nothing")
	}
	_ = writer.Close()
	resp, err := http.Post(url, writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestUploadAndServe(t *testing.T) {
	api := newTestAPI(t)
	resp := uploadRequest(t, api.ts.URL+"/api/upload", "file", "My Notes.pdf", []byte("hello"))
	defer resp.Body.Close()
	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success || out.Message != "File uploaded successfully" {
		t.Fatalf("upload: %d %+v", resp.StatusCode, out)
	}
	if !strings.HasPrefix(out.FileURL, "/uploads/") || !strings.HasSuffix(out.FileURL, "-My-Notes.pdf") {
		t.Fatalf("fileUrl = %q", out.FileURL)
	}
	if out.DownloadURL != out.FileURL {
		t.Fatalf("downloadUrl = %q, want %q", out.DownloadURL, out.FileURL)
	}

	served, err := http.Get(api.ts.URL + out.FileURL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer served.Body.Close()
	content, _ := io.ReadAll(served.Body)
	if served.StatusCode != http.StatusOK || string(content) != "hello" {
		t.Fatalf("served %d %q", served.StatusCode, content)
	}

	name := strings.TrimPrefix(out.FileURL, "/uploads/")
	download, err := http.Get(api.ts.URL + "/api/download/" + name)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer download.Body.Close()
	if download.StatusCode != http.StatusOK || !strings.HasPrefix(download.Header.Get("Content-Disposition"), "attachment") {
		t.Fatalf("download %d %q", download.StatusCode, download.Header.Get("Content-Disposition"))
	}
}

func TestUploadRejectsMissingAndEmptyFiles(t *testing.T) {
	api := newTestAPI(t)
	cases := []struct {
		name    string
		field   string
		content []byte
		message string
	}{
		{name: "missing", field: "", message: "No file provided"},
		{name: "empty", field: "file", content: nil, message: "Uploaded file is empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := uploadRequest(t, api.ts.URL+"/api/upload", tc.field, "a.txt", tc.content)
			defer resp.Body.Close()
			var out ErrorResponse
			_ = json.NewDecoder(resp.Body).Decode(&out)
			if resp.StatusCode != http.StatusBadRequest || out.Message != tc.message {
				t.Fatalf("got %d %+v", resp.StatusCode, out)
			}
		})
	}
	entries, err := os.ReadDir(api.server.Config.UploadDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("upload dir has %d entries, want 0", len(entries))
	}
}

func TestUploadTooLarge(t *testing.T) {
	api := newTestAPI(t)
	api.server.Config.UploadMaxBytes = 64
	resp := uploadRequest(t, api.ts.URL+"/api/upload", "file", "big.bin", bytes.Repeat([]byte("x"), 4096))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
}

func TestServeUploadRejectsTraversal(t *testing.T) {
	api := newTestAPI(t)
	secret := filepath.Join(filepath.Dir(api.server.Config.UploadDir), "secret.txt")
	_ = os.WriteFile(secret, []byte("x"), 0o644)
	t.Cleanup(func() { _ = os.Remove(secret) })

	for _, path := range []string{"/api/download/..%2Fsecret.txt", "/api/download/.hidden", "/api/download/missing.txt", "/uploads/missing.txt"} {
		var out ErrorResponse
		if status := api.do(http.MethodGet, path, nil, &out); status != http.StatusNotFound || out.Message != "File not found" {
			t.Fatalf("%s: %d %+v", path, status, out)
		}
	}
}

func TestAnalyticsAndVisits(t *testing.T) {
	api := newTestAPI(t)
	api.createCourse("Published", true)
	api.createCourse("Draft", false)

	for i := 0; i < 3; i++ {
		if status := api.do(http.MethodPost, "/api/public/visits", map[string]interface{}{"path": "/courses"}, nil); status != http.StatusNoContent {
			t.Fatalf("track status = %d", status)
		}
	}
	var count VisitCountResponse
	api.do(http.MethodGet, "/api/public/visits/count", nil, &count)
	if count.Total != 3 {
		t.Fatalf("visit total = %d, want 3", count.Total)
	}
	var visits VisitsResponse
	api.do(http.MethodGet, "/api/admin/visits?limit=2", nil, &visits)
	if len(visits.Visits) != 2 || visits.Visits[0].Path != "/courses" {
		t.Fatalf("visits = %+v", visits.Visits)
	}

	var analytics AnalyticsResponse
	if status := api.do(http.MethodGet, "/api/admin/analytics", nil, &analytics); status != http.StatusOK {
		t.Fatalf("analytics status = %d", status)
	}
	got := analytics.Analytics
	if got.TotalCourses != 2 || got.PublishedCourses != 1 || got.DraftCourses != 1 || got.SiteVisits != 3 {
		t.Fatalf("analytics = %+v", got)
	}
	if got.TotalViews != 12847 {
		t.Fatalf("totalViews = %d", got.TotalViews)
	}
}

func TestMetricsHistoryEndpoint(t *testing.T) {
	api := newTestAPI(t)
	for i := 0; i < 4; i++ {
		api.server.Metrics.Add(services.MetricSample{ProcessRSSBytes: int64(i)})
	}
	var resp MetricsHistoryResponse
	api.do(http.MethodGet, "/api/admin/metrics/history?limit=2", nil, &resp)
	if len(resp.Items) != 2 || resp.Items[0].ProcessRSSBytes != 2 || resp.Items[1].ProcessRSSBytes != 3 {
		t.Fatalf("items = %+v", resp.Items)
	}
}
