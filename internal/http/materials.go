package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"coursehub-backend-go/internal/models"
)

func (s *Server) ListPublishedMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.Store.Materials().FindPublished(r.Context())
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch materials")
		return
	}
	WriteJSON(w, http.StatusOK, MaterialsResponse{Success: true, Materials: materials})
}

func (s *Server) AdminListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.Store.Materials().FindAll(r.Context())
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch admin materials")
		return
	}
	WriteJSON(w, http.StatusOK, MaterialsResponse{Success: true, Materials: materials})
}

func (s *Server) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req models.MaterialInput
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "Title is required")
		return
	}
	kind, ok := models.ParseMaterialType(string(req.Type))
	if !ok {
		WriteError(w, http.StatusBadRequest, "Unknown material type")
		return
	}
	req.Type = kind
	req.CourseID = strings.TrimSpace(req.CourseID)
	material, err := s.Store.Materials().Create(r.Context(), req)
	if err != nil {
		s.internalError(w, r, err, "Failed to create material")
		return
	}
	s.Log.Infow("material created", "material_id", material.ID, "course_id", material.CourseID, "type", material.Type)
	WriteJSON(w, http.StatusCreated, MaterialResponse{Success: true, Material: material})
}

func (s *Server) GetMaterial(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialId")
	material, found, err := s.Store.Materials().FindByID(r.Context(), materialID)
	if err != nil {
		s.internalError(w, r, err, "Failed to fetch material")
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Material not found")
		return
	}
	WriteJSON(w, http.StatusOK, MaterialResponse{Success: true, Material: material})
}

func (s *Server) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialId")
	var patch models.MaterialPatch
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
	if patch.Type != nil {
		kind, ok := models.ParseMaterialType(string(*patch.Type))
		if !ok {
			WriteError(w, http.StatusBadRequest, "Unknown material type")
			return
		}
		patch.Type = &kind
	}
	if patch.CourseID != nil {
		courseID := strings.TrimSpace(*patch.CourseID)
		patch.CourseID = &courseID
	}
	material, found, err := s.Store.Materials().Update(r.Context(), materialID, patch)
	if err != nil {
		s.internalError(w, r, err, "Failed to update material")
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "Material not found")
		return
	}
	WriteJSON(w, http.StatusOK, MaterialResponse{Success: true, Material: material})
}

func (s *Server) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	materialID := chi.URLParam(r, "materialId")
	deleted, err := s.Store.Materials().Delete(r.Context(), materialID)
	if err != nil {
		s.internalError(w, r, err, "Failed to delete material")
		return
	}
	if !deleted {
		WriteError(w, http.StatusNotFound, "Material not found")
		return
	}
	s.Log.Infow("material deleted", "material_id", materialID)
	WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Material deleted"})
}
