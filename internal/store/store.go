// Package store holds courses and study materials and the repository
// operations the HTTP layer runs against them.
//
// Lookups report absence through a found/deleted flag rather than an error;
// a non-nil error always means an unexpected fault.
package store

import (
	"context"
	"strconv"

	"coursehub-backend-go/internal/models"
)

type CourseRepository interface {
	// FindAll returns every course with all of its materials attached.
	FindAll(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (models.Course, bool, error)
	// FindPublished returns published courses with only their published materials attached.
	FindPublished(ctx context.Context) ([]models.Course, error)
	Create(ctx context.Context, input models.CourseInput) (models.Course, error)
	Update(ctx context.Context, id string, patch models.CoursePatch) (models.Course, bool, error)
	// Delete removes the course and every material that references it.
	Delete(ctx context.Context, id string) (bool, error)
}

type MaterialRepository interface {
	FindAll(ctx context.Context) ([]models.StudyMaterial, error)
	FindByID(ctx context.Context, id string) (models.StudyMaterial, bool, error)
	FindPublished(ctx context.Context) ([]models.StudyMaterial, error)
	FindByCourse(ctx context.Context, courseID string) ([]models.StudyMaterial, error)
	Create(ctx context.Context, input models.MaterialInput) (models.StudyMaterial, error)
	Update(ctx context.Context, id string, patch models.MaterialPatch) (models.StudyMaterial, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Store interface {
	Courses() CourseRepository
	Materials() MaterialRepository
	// Load replaces every course and material with the given records, ids and
	// timestamps included. Later creates get ids above the highest loaded one.
	Load(ctx context.Context, courses []models.Course, materials []models.StudyMaterial) error
	Close() error
}

const (
	seqCourses   = "courses"
	seqMaterials = "materials"
)

func formatID(n int64) string {
	return strconv.FormatInt(n, 10)
}

// maxNumericID returns the largest id that parses as an integer, or 0.
func maxNumericID(ids []string) int64 {
	var max int64
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil && n > max {
			max = n
		}
	}
	return max
}
