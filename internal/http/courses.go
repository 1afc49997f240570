package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"coursehub-backend-go/internal/models"
)

func (s *Server) ListPublishedCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.Store.Courses().FindPublished(r.Context())
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch courses")
		return
	}
	WriteJSON(w, http.StatusOK, CoursesResponse{Success: true, Courses: courses})
}

func (s *Server) AdminListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.Store.Courses().FindAll(r.Context())
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch admin courses")
		return
	}
	WriteJSON(w, http.StatusOK, CoursesResponse{Success: true, Courses: courses})
}

func (s *Server) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CourseInput
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "Title is required")
		return
	}
	course, err := s.Store.Courses().Create(r.Context(), req)
	if err != nil {
		s.internalError(w, r, err, "Failed to create course")
		return
	}
	s.Log.Infow("course created", "course_id", course.ID, "published", course.IsPublished)
	WriteJSON(w, http.StatusCreated, CourseResponse{Success: true, Course: course})
}

func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	course, found, err := s.Store.Courses().FindByID(r.Context(), courseID)
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch course")
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	WriteJSON(w, http.StatusOK, CourseResponse{Success: true, Course: course})
}

func (s *Server) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	var patch models.CoursePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			WriteError(w, http.StatusBadRequest, "Title is required")
			return
		}
		patch.Title = &title
	}
	course, found, err := s.Store.Courses().Update(r.Context(), courseID, patch)
	if err != nil {
		s.internalError(w, r, err, "Failed to update course")
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	WriteJSON(w, http.StatusOK, CourseResponse{Success: true, Course: course})
}

func (s *Server) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	deleted, err := s.Store.Courses().Delete(r.Context(), courseID)
	if err != nil {
		s.internalError(w, r, err, "Failed to delete course")
		return
	}
	if !deleted {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	s.Log.Infow("course deleted", "course_id", courseID)
	WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Course deleted"})
}

// ListCourseMaterials is the learner view of one course: drafts are hidden,
// both the course itself and its unpublished materials.
func (s *Server) ListCourseMaterials(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	course, found, err := s.Store.Courses().FindByID(r.Context(), courseID)
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch materials")
		return
	}
	if !found || !course.IsPublished {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	all, err := s.Store.Materials().FindByCourse(r.Context(), course.ID)
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch materials")
		return
	}
	materials := make([]models.StudyMaterial, 0, len(all))
	for _, material := range all {
		if material.IsPublished {
			materials = append(materials, material)
		}
	}
	WriteJSON(w, http.StatusOK, MaterialsResponse{Success: true, Materials: materials})
}
