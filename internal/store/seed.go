package store

import (
	"context"
	"fmt"
	"time"

	"coursehub-backend-go/internal/models"
)

func seedDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// sampleCatalog is the starter content with its original ids and dates.
func sampleCatalog() ([]models.Course, []models.StudyMaterial) {
	courses := []models.Course{
		{
			ID:          "1",
			Title:       "Introduction to Programming",
			Description: "Learn the fundamentals of programming with practical examples.",
			Thumbnail:   strPtr("/placeholder-course.jpg"),
			IsPublished: true,
			CreatedAt:   seedDate(2024, time.January, 15),
			UpdatedAt:   seedDate(2024, time.January, 15),
		},
		{
			ID:          "2",
			Title:       "Advanced Web Development",
			Description: "Master modern web development techniques and frameworks.",
			Thumbnail:   strPtr("/placeholder-course.jpg"),
			IsPublished: false,
			CreatedAt:   seedDate(2024, time.February, 1),
			UpdatedAt:   seedDate(2024, time.February, 1),
		},
	}
	materials := []models.StudyMaterial{
		{
			ID:          "1",
			Title:       "Programming Basics PDF",
			Description: "Comprehensive guide to programming fundamentals",
			Type:        models.MaterialPDF,
			FileURL:     strPtr("/materials/programming-basics.pdf"),
			DownloadURL: strPtr("/api/download/programming-basics.pdf"),
			IsPublished: true,
			CourseID:    "1",
			CreatedAt:   seedDate(2024, time.January, 16),
			UpdatedAt:   seedDate(2024, time.January, 16),
		},
		{
			ID:          "2",
			Title:       "HTML & CSS Tutorial Video",
			Description: "Step-by-step video tutorial for web basics",
			Type:        models.MaterialVideo,
			FileURL:     strPtr("/materials/html-css-tutorial.mp4"),
			IsPublished: true,
			CourseID:    "2",
			CreatedAt:   seedDate(2024, time.February, 2),
			UpdatedAt:   seedDate(2024, time.February, 2),
		},
	}
	return courses, materials
}

// Seed fills an empty store with the sample catalog. A store that already
// holds courses is left untouched.
func Seed(ctx context.Context, st Store) (int, error) {
	existing, err := st.Courses().FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: list courses: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	courses, materials := sampleCatalog()
	if err := st.Load(ctx, courses, materials); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	return len(courses), nil
}

func strPtr(value string) *string {
	return &value
}
