package httpapi

import (
	"encoding/json"
	"net/http"

	"coursehub-backend-go/internal/models"
	"coursehub-backend-go/internal/services"
)

// Every body carries a boolean success flag; failures add a message.

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CoursesResponse struct {
	Success bool            `json:"success"`
	Courses []models.Course `json:"courses"`
}

type CourseResponse struct {
	Success bool          `json:"success"`
	Course  models.Course `json:"course"`
}

type MaterialsResponse struct {
	Success   bool                   `json:"success"`
	Materials []models.StudyMaterial `json:"materials"`
}

type MaterialResponse struct {
	Success  bool                 `json:"success"`
	Material models.StudyMaterial `json:"material"`
}

type UploadResponse struct {
	Success     bool   `json:"success"`
	FileURL     string `json:"fileUrl"`
	DownloadURL string `json:"downloadUrl"`
	Message     string `json:"message"`
}

type AnalyticsResponse struct {
	Success   bool               `json:"success"`
	Analytics services.Analytics `json:"analytics"`
}

type VisitsResponse struct {
	Success bool             `json:"success"`
	Visits  []services.Visit `json:"visits"`
}

type VisitCountResponse struct {
	Success bool `json:"success"`
	Total   int  `json:"total"`
}

type MetricsHistoryResponse struct {
	Success bool                    `json:"success"`
	Items   []services.MetricSample `json:"items"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Message: message})
}
