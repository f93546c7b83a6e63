// Package api exposes the study service over JSON HTTP.
package api

import (
	"net/http"
	"strconv"

	"github.com/example/precedents/internal/auth"
	"github.com/example/precedents/internal/database"
	"github.com/example/precedents/internal/excel"
	"github.com/example/precedents/internal/metrics"
	"github.com/example/precedents/internal/study"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultHeatmapDays is used when Options.HeatmapDays is unset
const DefaultHeatmapDays = 365

// Options tunes the HTTP layer
type Options struct {
	HeatmapDays  int
	SecureCookie bool
}

// Server holds the dependencies of the HTTP handlers
type Server struct {
	auth     *auth.Service
	study    *study.Service
	users    *database.UserRepository
	subjects *database.SubjectRepository
	importer *excel.Importer
	opts     Options
}

// NewServer creates the HTTP server dependencies
func NewServer(authSvc *auth.Service, svc *study.Service, subjects *database.SubjectRepository, opts Options) *Server {
	if opts.HeatmapDays <= 0 {
		opts.HeatmapDays = DefaultHeatmapDays
	}
	return &Server{
		auth:     authSvc,
		study:    svc,
		users:    authSvc.Users(),
		subjects: subjects,
		importer: excel.NewImporter(subjects, svc.Precedents),
		opts:     opts,
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), metrics.Middleware())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", s.register)
			authGroup.POST("/login", s.login)
			authGroup.POST("/logout", s.logout)
		}

		user := api.Group("", s.auth.RequireUser())
		{
			user.GET("/me", s.me)
			user.PUT("/me/track", s.updateTrack)
			user.PUT("/me/notifications", s.updateNotifications)

			studying := user.Group("", requireTrack())
			{
				studying.GET("/subjects", s.listSubjects)
				studying.GET("/precedents", s.listPrecedents)
				studying.GET("/precedents/:id", s.getPrecedent)
				studying.POST("/precedents/:id/read", s.markRead)
				studying.DELETE("/precedents/:id/read", s.unmarkRead)
				studying.POST("/precedents/:id/answers", s.answer)
				studying.GET("/reviews/due", s.dueReviews)
				studying.GET("/stats", s.stats)
				studying.GET("/stats/heatmap", s.heatmap)
			}

			admin := user.Group("/admin", auth.RequireAdmin())
			{
				admin.GET("/subjects", s.adminListSubjects)
				admin.POST("/subjects", s.adminCreateSubject)
				admin.PUT("/subjects/:id", s.adminUpdateSubject)
				admin.DELETE("/subjects/:id", s.adminDeleteSubject)

				admin.GET("/precedents", s.adminListPrecedents)
				admin.POST("/precedents", s.adminCreatePrecedent)
				admin.GET("/precedents/:id", s.adminGetPrecedent)
				admin.PUT("/precedents/:id", s.adminUpdatePrecedent)
				admin.DELETE("/precedents/:id", s.adminDeletePrecedent)

				admin.POST("/import", s.adminImport)
				admin.GET("/stats", s.adminStats)
				admin.PUT("/users/:id/admin", s.adminSetAdmin)
			}
		}
	}
	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pathID parses a positive integer path parameter
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, errInvalidID)
		return 0, false
	}
	return id, true
}
