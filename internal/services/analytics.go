package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"coursehub-backend-go/internal/store"
)

// Dashboard figures that have no data source yet. They are reported as-is
// next to the live content counts.
const (
	mockTotalViews      = 12847
	mockTotalDownloads  = 3426
	mockTotalLearners   = 892
	mockMonthlyRevenue  = 0
	mockViewsChange     = 23.4
	mockDownloadsChange = 12.8
	mockLearnersChange  = 8.9
)

type Analytics struct {
	TotalViews         int     `json:"totalViews"`
	TotalDownloads     int     `json:"totalDownloads"`
	TotalLearners      int     `json:"totalLearners"`
	MonthlyRevenue     float64 `json:"monthlyRevenue"`
	ViewsChange        float64 `json:"viewsChange"`
	DownloadsChange    float64 `json:"downloadsChange"`
	LearnersChange     float64 `json:"learnersChange"`
	TotalCourses       int     `json:"totalCourses"`
	PublishedCourses   int     `json:"publishedCourses"`
	DraftCourses       int     `json:"draftCourses"`
	TotalMaterials     int     `json:"totalMaterials"`
	PublishedMaterials int     `json:"publishedMaterials"`
	SiteVisits         int     `json:"siteVisits"`
}

func BuildAnalytics(ctx context.Context, st store.Store, visits *VisitTracker) (Analytics, error) {
	courses, err := st.Courses().FindAll(ctx)
	if err != nil {
		return Analytics{}, WrapError(err, "analytics courses")
	}
	materials, err := st.Materials().FindAll(ctx)
	if err != nil {
		return Analytics{}, WrapError(err, "analytics materials")
	}
	out := Analytics{
		TotalViews:      mockTotalViews,
		TotalDownloads:  mockTotalDownloads,
		TotalLearners:   mockTotalLearners,
		MonthlyRevenue:  mockMonthlyRevenue,
		ViewsChange:     mockViewsChange,
		DownloadsChange: mockDownloadsChange,
		LearnersChange:  mockLearnersChange,
		TotalCourses:    len(courses),
		TotalMaterials:  len(materials),
	}
	for _, course := range courses {
		if course.IsPublished {
			out.PublishedCourses++
		}
	}
	out.DraftCourses = out.TotalCourses - out.PublishedCourses
	for _, material := range materials {
		if material.IsPublished {
			out.PublishedMaterials++
		}
	}
	if visits != nil {
		out.SiteVisits = visits.Count()
	}
	return out, nil
}

type Visit struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Path      string    `json:"path,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// VisitTracker keeps the most recent visits in memory. The total keeps
// counting after old entries are dropped.
type VisitTracker struct {
	mu     sync.Mutex
	limit  int
	visits []Visit
	total  int
}

func NewVisitTracker(limit int) *VisitTracker {
	if limit < 1 {
		limit = 1
	}
	return &VisitTracker{limit: limit}
}

func (t *VisitTracker) Track(ip, userAgent, path, referrer string) Visit {
	visit := Visit{
		ID:        uuid.NewString(),
		IPAddress: trimString(ip, 64),
		UserAgent: trimString(userAgent, 512),
		Path:      trimString(path, 255),
		Referrer:  trimString(referrer, 512),
		CreatedAt: time.Now().UTC(),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visits = append(t.visits, visit)
	if len(t.visits) > t.limit {
		t.visits = append(t.visits[:0], t.visits[len(t.visits)-t.limit:]...)
	}
	t.total++
	return visit
}

func (t *VisitTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Recent returns up to n of the latest visits, newest last.
func (t *VisitTracker) Recent(n int) []Visit {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || n > len(t.visits) {
		n = len(t.visits)
	}
	out := make([]Visit, n)
	copy(out, t.visits[len(t.visits)-n:])
	return out
}

// trimString caps value at maxLen bytes without splitting a UTF-8 sequence.
func trimString(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) <= maxLen {
		return trimmed
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut]
}
