package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiledash/internal/config"
	"tiledash/internal/tiles"
)

func (s *Server) handleDeleteTile(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	tileID := c.Param("tileId")
	if err := db.MarkTileDeleted(tileID, tiles.DocNoFromTileID(tileID)); err != nil {
		config.LogError(config.GetLogger(), "server", "handleDeleteTile", "marking tile deleted", tileID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete tile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tileId": tileID, "deleted": true})
}

func (s *Server) handleRestoreTile(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	tileID := c.Param("tileId")
	restored, err := db.RestoreTile(tileID)
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleRestoreTile", "restoring tile", tileID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not restore tile"})
		return
	}
	if !restored {
		c.JSON(http.StatusNotFound, gin.H{"error": "tile is not deleted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tileId": tileID, "restored": true})
}

func (s *Server) handleRestoreAllTiles(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	count, err := db.RestoreAllTiles()
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleRestoreAllTiles", "restoring all tiles", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not restore tiles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": count})
}

func (s *Server) handleListDeletedTiles(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	deleted, err := db.ListDeletedTiles()
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleListDeletedTiles", "listing deleted tiles", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list deleted tiles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedTiles": deleted})
}
