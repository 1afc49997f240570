package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"coursehub-backend-go/internal/config"
	"coursehub-backend-go/internal/services"
	"coursehub-backend-go/internal/store"
)

type Server struct {
	Store      store.Store
	Config     config.Config
	Uploads    services.Uploads
	Visits     *services.VisitTracker
	Metrics    *services.MetricsHistory
	MetricsHub *services.MetricsHub
	Log        *zap.SugaredLogger
}

func NewServer(st store.Store, cfg config.Config, metrics *services.MetricsHistory, hub *services.MetricsHub, log *zap.SugaredLogger) *Server {
	return &Server{
		Store:      st,
		Config:     cfg,
		Uploads:    services.Uploads{Dir: cfg.UploadDir, URLPrefix: cfg.UploadURLPrefix},
		Visits:     services.NewVisitTracker(cfg.VisitHistorySize),
		Metrics:    metrics,
		MetricsHub: hub,
		Log:        log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.Log))
	r.Use(Recoverer(s.Log))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", s.Health)

	r.Route("/api", func(api chi.Router) {
		api.Route("/courses", func(courses chi.Router) {
			courses.Get("/", s.ListPublishedCourses)
			courses.Post("/", s.CreateCourse)
			courses.Get("/{courseId}", s.GetCourse)
			courses.Put("/{courseId}", s.UpdateCourse)
			courses.Delete("/{courseId}", s.DeleteCourse)
			courses.Get("/{courseId}/materials", s.ListCourseMaterials)
		})

		api.Route("/materials", func(materials chi.Router) {
			materials.Get("/", s.ListPublishedMaterials)
			materials.Post("/", s.CreateMaterial)
			materials.Get("/{materialId}", s.GetMaterial)
			materials.Put("/{materialId}", s.UpdateMaterial)
			materials.Delete("/{materialId}", s.DeleteMaterial)
		})

		api.Post("/upload", s.Upload)
		api.Get("/download/{fileName}", s.Download)

		api.Route("/admin", func(admin chi.Router) {
			admin.Get("/courses", s.AdminListCourses)
			admin.Get("/materials", s.AdminListMaterials)
			admin.Get("/analytics", s.AdminAnalytics)
			admin.Get("/visits", s.AdminRecentVisits)
			admin.Get("/metrics/history", s.MetricsHistory)
		})

		api.Route("/public", func(pub chi.Router) {
			pub.Post("/visits", s.TrackVisit)
			pub.Get("/visits/count", s.VisitCount)
		})
	})

	r.Get(s.Uploads.URL("*"), s.ServeUpload)
	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "ok"})
}

// internalError logs err and answers with the generic message only.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	s.Log.Errorw(message, "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	WriteError(w, http.StatusInternalServerError, message)
}

// writeServiceError answers with the status carried by a ServiceError and
// treats anything else as an internal fault.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if serr, ok := services.AsServiceError(err); ok {
		WriteError(w, serr.Status, serr.Message)
		return
	}
	s.internalError(w, r, err, message)
}
