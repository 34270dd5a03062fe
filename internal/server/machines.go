package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tiledash/internal"
	"tiledash/internal/config"
)

type newWarrantyMachineRequest struct {
	MachineName    string `json:"machineName" binding:"required"`
	ClientName     string `json:"clientName" binding:"required"`
	NumMachines    int    `json:"numMachines" binding:"required,min=1"`
	WarrantyStatus string `json:"warrantyStatus" binding:"required,oneof=Active 'Expiring Soon' Extended"`
	Inspected      string `json:"inspected" binding:"required,oneof=Yes No Pending"`
}

type newOutOfWarrantyMachineRequest struct {
	MachineName    string `json:"machineName" binding:"required"`
	ClientName     string `json:"clientName" binding:"required"`
	NumMachines    int    `json:"numMachines" binding:"required,min=1"`
	Inspected      string `json:"inspected" binding:"required,oneof=Yes No Pending"`
	QuoteLPOStatus string `json:"quoteLpoStatus" binding:"required,oneof='Quote Sent' 'LPO Received' Pending 'Not Required'"`
}

type machinesSummary struct {
	WarrantyMachines      int     `json:"warrantyMachines"`
	OutOfWarrantyMachines int     `json:"outOfWarrantyMachines"`
	TotalMachines         int     `json:"totalMachines"`
	WarrantyPercent       float64 `json:"warrantyPercent"`
}

func (s *Server) handleCreateWarrantyMachine(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	var req newWarrantyMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine, err := db.InsertWarrantyMachine(internal.WarrantyMachine{
		ID:             uuid.NewString(),
		MachineName:    req.MachineName,
		ClientName:     req.ClientName,
		NumMachines:    req.NumMachines,
		WarrantyStatus: internal.WarrantyStatus(req.WarrantyStatus),
		Inspected:      internal.InspectionState(req.Inspected),
	})
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleCreateWarrantyMachine", "inserting machine", req, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add machine"})
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func (s *Server) handleListWarrantyMachines(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	machines, err := db.ListWarrantyMachines()
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleListWarrantyMachines", "listing machines", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list machines"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machines": machines})
}

func (s *Server) handleDeleteWarrantyMachine(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	id := c.Param("id")
	removed, err := db.DeleteWarrantyMachine(id)
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleDeleteWarrantyMachine", "deleting machine", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete machine"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (s *Server) handleCreateOutOfWarrantyMachine(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	var req newOutOfWarrantyMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine, err := db.InsertOutOfWarrantyMachine(internal.OutOfWarrantyMachine{
		ID:             uuid.NewString(),
		MachineName:    req.MachineName,
		ClientName:     req.ClientName,
		NumMachines:    req.NumMachines,
		Inspected:      internal.InspectionState(req.Inspected),
		QuoteLPOStatus: internal.QuoteLPOStatus(req.QuoteLPOStatus),
	})
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleCreateOutOfWarrantyMachine", "inserting machine", req, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add machine"})
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func (s *Server) handleListOutOfWarrantyMachines(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	machines, err := db.ListOutOfWarrantyMachines()
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleListOutOfWarrantyMachines", "listing machines", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list machines"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machines": machines})
}

func (s *Server) handleDeleteOutOfWarrantyMachine(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	id := c.Param("id")
	removed, err := db.DeleteOutOfWarrantyMachine(id)
	if err != nil {
		config.LogError(config.GetLogger(), "server", "handleDeleteOutOfWarrantyMachine", "deleting machine", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete machine"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (s *Server) handleMachinesSummary(c *gin.Context) {
	db := s.storeOr503(c)
	if db == nil {
		return
	}

	warranty, err := db.ListWarrantyMachines()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load machines"})
		return
	}
	outOfWarranty, err := db.ListOutOfWarrantyMachines()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load machines"})
		return
	}

	summary := machinesSummary{}
	for _, m := range warranty {
		summary.WarrantyMachines += m.NumMachines
	}
	for _, m := range outOfWarranty {
		summary.OutOfWarrantyMachines += m.NumMachines
	}
	summary.TotalMachines = summary.WarrantyMachines + summary.OutOfWarrantyMachines
	if summary.TotalMachines > 0 {
		summary.WarrantyPercent = float64(summary.WarrantyMachines) * 100 / float64(summary.TotalMachines)
	}

	c.JSON(http.StatusOK, summary)
}
