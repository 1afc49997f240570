package store

import (
	"context"
	"sync"
	"time"

	"coursehub-backend-go/internal/models"
)

// MemoryStore keeps both collections in process memory. State lives as long
// as the value does; nothing is written to disk.
type MemoryStore struct {
	mu           sync.RWMutex
	courses      []models.Course
	materials    []models.StudyMaterial
	lastCourse   int64
	lastMaterial int64
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Load replaces the contents of the store, keeping ids and timestamps as
// given. Id counters move past the highest numeric id loaded so later creates
// never collide with loaded records.
func (s *MemoryStore) Load(ctx context.Context, courses []models.Course, materials []models.StudyMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = make([]models.Course, 0, len(courses))
	courseIDs := make([]string, 0, len(courses))
	for _, course := range courses {
		s.courses = append(s.courses, cloneCourse(course))
		courseIDs = append(courseIDs, course.ID)
	}
	s.materials = make([]models.StudyMaterial, 0, len(materials))
	materialIDs := make([]string, 0, len(materials))
	for _, material := range materials {
		s.materials = append(s.materials, cloneMaterial(material))
		materialIDs = append(materialIDs, material.ID)
	}
	s.lastCourse = max(s.lastCourse, maxNumericID(courseIDs))
	s.lastMaterial = max(s.lastMaterial, maxNumericID(materialIDs))
	return nil
}

func (s *MemoryStore) Courses() CourseRepository {
	return memoryCourses{s}
}

func (s *MemoryStore) Materials() MaterialRepository {
	return memoryMaterials{s}
}

func (s *MemoryStore) Close() error {
	return nil
}

// attach must be called with s.mu held.
func (s *MemoryStore) attach(course models.Course, publishedOnly bool) models.Course {
	out := cloneCourse(course)
	out.Materials = []models.StudyMaterial{}
	for _, material := range s.materials {
		if material.CourseID != course.ID {
			continue
		}
		if publishedOnly && !material.IsPublished {
			continue
		}
		out.Materials = append(out.Materials, cloneMaterial(material))
	}
	return out
}

func (s *MemoryStore) courseIndex(id string) int {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) materialIndex(id string) int {
	for i := range s.materials {
		if s.materials[i].ID == id {
			return i
		}
	}
	return -1
}

type memoryCourses struct {
	s *MemoryStore
}

func (r memoryCourses) FindAll(ctx context.Context) ([]models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]models.Course, 0, len(r.s.courses))
	for _, course := range r.s.courses {
		items = append(items, r.s.attach(course, false))
	}
	return items, nil
}

func (r memoryCourses) FindByID(ctx context.Context, id string) (models.Course, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := r.s.courseIndex(id)
	if idx == -1 {
		return models.Course{}, false, nil
	}
	return r.s.attach(r.s.courses[idx], false), true, nil
}

func (r memoryCourses) FindPublished(ctx context.Context) ([]models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := []models.Course{}
	for _, course := range r.s.courses {
		if !course.IsPublished {
			continue
		}
		items = append(items, r.s.attach(course, true))
	}
	return items, nil
}

func (r memoryCourses) Create(ctx context.Context, input models.CourseInput) (models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	r.s.lastCourse++
	course := models.Course{
		ID:          formatID(r.s.lastCourse),
		Title:       input.Title,
		Description: input.Description,
		Thumbnail:   copyString(input.Thumbnail),
		IsPublished: input.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.courses = append(r.s.courses, course)
	return r.s.attach(course, false), nil
}

func (r memoryCourses) Update(ctx context.Context, id string, patch models.CoursePatch) (models.Course, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.courseIndex(id)
	if idx == -1 {
		return models.Course{}, false, nil
	}
	course := r.s.courses[idx]
	course.Apply(patch)
	course.UpdatedAt = r.s.now()
	r.s.courses[idx] = course
	return r.s.attach(course, false), true, nil
}

func (r memoryCourses) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.courseIndex(id)
	if idx == -1 {
		return false, nil
	}
	r.s.courses = append(r.s.courses[:idx], r.s.courses[idx+1:]...)
	kept := r.s.materials[:0]
	for _, material := range r.s.materials {
		if material.CourseID != id {
			kept = append(kept, material)
		}
	}
	clear(r.s.materials[len(kept):])
	r.s.materials = kept
	return true, nil
}

type memoryMaterials struct {
	s *MemoryStore
}

func (r memoryMaterials) FindAll(ctx context.Context) ([]models.StudyMaterial, error) {
	return r.filter(func(models.StudyMaterial) bool { return true }), nil
}

func (r memoryMaterials) FindByID(ctx context.Context, id string) (models.StudyMaterial, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := r.s.materialIndex(id)
	if idx == -1 {
		return models.StudyMaterial{}, false, nil
	}
	return cloneMaterial(r.s.materials[idx]), true, nil
}

func (r memoryMaterials) FindPublished(ctx context.Context) ([]models.StudyMaterial, error) {
	return r.filter(func(m models.StudyMaterial) bool { return m.IsPublished }), nil
}

func (r memoryMaterials) FindByCourse(ctx context.Context, courseID string) ([]models.StudyMaterial, error) {
	return r.filter(func(m models.StudyMaterial) bool { return m.CourseID == courseID }), nil
}

func (r memoryMaterials) filter(keep func(models.StudyMaterial) bool) []models.StudyMaterial {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := []models.StudyMaterial{}
	for _, material := range r.s.materials {
		if keep(material) {
			items = append(items, cloneMaterial(material))
		}
	}
	return items
}

func (r memoryMaterials) Create(ctx context.Context, input models.MaterialInput) (models.StudyMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	r.s.lastMaterial++
	material := models.StudyMaterial{
		ID:          formatID(r.s.lastMaterial),
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		FileURL:     copyString(input.FileURL),
		DownloadURL: copyString(input.DownloadURL),
		IsPublished: input.IsPublished,
		CourseID:    input.CourseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.materials = append(r.s.materials, material)
	return cloneMaterial(material), nil
}

func (r memoryMaterials) Update(ctx context.Context, id string, patch models.MaterialPatch) (models.StudyMaterial, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.materialIndex(id)
	if idx == -1 {
		return models.StudyMaterial{}, false, nil
	}
	material := r.s.materials[idx]
	material.Apply(patch)
	material.UpdatedAt = r.s.now()
	r.s.materials[idx] = material
	return cloneMaterial(material), true, nil
}

func (r memoryMaterials) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	idx := r.s.materialIndex(id)
	if idx == -1 {
		return false, nil
	}
	r.s.materials = append(r.s.materials[:idx], r.s.materials[idx+1:]...)
	return true, nil
}

func cloneCourse(c models.Course) models.Course {
	c.Thumbnail = copyString(c.Thumbnail)
	c.Materials = nil
	return c
}

func cloneMaterial(m models.StudyMaterial) models.StudyMaterial {
	m.FileURL = copyString(m.FileURL)
	m.DownloadURL = copyString(m.DownloadURL)
	return m
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
