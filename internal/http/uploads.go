package httpapi

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

const multipartMemory = 32 << 20

func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.UploadMaxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	result, err := s.Uploads.Save(header.Filename, file)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to upload file")
		return
	}
	s.Log.Infow("file uploaded", "file", result.FileName, "size_bytes", result.SizeBytes)
	WriteJSON(w, http.StatusOK, UploadResponse{
		Success:     true,
		FileURL:     result.FileURL,
		DownloadURL: result.DownloadURL,
		Message:     "File uploaded successfully",
	})
}

// ServeUpload serves stored files inline. Directory listings are not exposed.
func (s *Server) ServeUpload(w http.ResponseWriter, r *http.Request) {
	path, err := s.Uploads.Path(chi.URLParam(r, "*"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to read file")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	path, err := s.Uploads.Path(chi.URLParam(r, "fileName"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to read file")
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	http.ServeFile(w, r, path)
}
