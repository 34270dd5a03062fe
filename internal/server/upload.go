package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tiledash/internal/config"
	"tiledash/internal/ingest"
	"tiledash/internal/pipeline"
)

const maxUploadSizeBytes int64 = 20 * 1024 * 1024

func (s *Server) handleUpload(c *gin.Context) {
	logger := config.GetLogger()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if fileHeader.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 20MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	result, err := s.processor.ProcessUpload(fileHeader.Filename, data)
	if err != nil {
		var missingErr *ingest.MissingColumnsError
		switch {
		case errors.As(err, &missingErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":            "missing columns",
				"missingColumns":   missingErr.Missing,
				"availableColumns": missingErr.Available,
			})
		case errors.Is(err, pipeline.ErrNoUsableRows):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "no usable rows",
				"stats": result.Stats,
			})
		default:
			config.LogError(logger, "server", "handleUpload", "processing upload", fileHeader.Filename, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	logger.WithField("traceId", result.TraceID).
		WithField("fileName", result.FileName).
		WithField("tiles", result.TotalTiles).
		Info("upload processed")

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListUploads(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}
	runs, err := db.ListUploads(50)
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleListUploads", "listing uploads", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list uploads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": runs})
}
