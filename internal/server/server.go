package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiledash/internal/config"
	"tiledash/internal/pipeline"
	"tiledash/internal/storage"
)

// Server wires the upload pipeline and the machine/tile CRUD endpoints. A
// nil store keeps uploads working; endpoints that need persistence answer
// 503 instead.
type Server struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
}

func New(db *storage.DB, cfg config.Config) *Server {
	return &Server{
		db:        db,
		cfg:       cfg,
		processor: pipeline.NewProcessingService(db, cfg),
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/uploads", s.handleUpload)
		api.GET("/uploads", s.handleListUploads)

		api.GET("/tiles/deleted", s.handleListDeletedTiles)
		api.DELETE("/tiles/:tileId", s.handleDeleteTile)
		api.POST("/tiles/:tileId/restore", s.handleRestoreTile)
		api.POST("/tiles/restore-all", s.handleRestoreAllTiles)

		api.GET("/machines/warranty", s.handleListWarrantyMachines)
		api.POST("/machines/warranty", s.handleCreateWarrantyMachine)
		api.DELETE("/machines/warranty/:id", s.handleDeleteWarrantyMachine)

		api.GET("/machines/out-of-warranty", s.handleListOutOfWarrantyMachines)
		api.POST("/machines/out-of-warranty", s.handleCreateOutOfWarrantyMachine)
		api.DELETE("/machines/out-of-warranty/:id", s.handleDeleteOutOfWarrantyMachine)

		api.GET("/machines/summary", s.handleMachinesSummary)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok", "storeAvailable": s.db != nil}
	c.JSON(http.StatusOK, status)
}

// storeOr503 guards handlers that cannot work without persistence.
func (s *Server) storeOr503(c *gin.Context) *storage.DB {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return nil
	}
	return s.db
}
