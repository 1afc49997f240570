package httpapi

import (
	"encoding/json"
	"net/http"
)

type VisitRequest struct {
	Path     *string `json:"path"`
	Referrer *string `json:"referrer"`
}

func (s *Server) TrackVisit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req)
	s.Visits.Track(r.RemoteAddr, r.Header.Get("User-Agent"), ptrToString(req.Path), ptrToString(req.Referrer))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) VisitCount(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, VisitCountResponse{Success: true, Total: s.Visits.Count()})
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
