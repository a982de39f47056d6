package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/strikesec/webstrike/internal/version"
	"github.com/strikesec/webstrike/internal/vulnscan"
)

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   version.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type startScanRequest struct {
	Target string `json:"target" binding:"required"`
}

// startScan kicks off a background pipeline run.
func (s *Server) startScan(c *gin.Context) {
	var req startScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target is required"})
		return
	}

	target := strings.TrimSpace(req.Target)
	if strings.ContainsAny(target, ";|&$`\\\"'<> ") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid characters in target"})
		return
	}

	scan, err := s.scanMgr.Start(target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     scan.ID,
		"target": scan.Target,
		"status": scan.Status,
	})
}

// listScans returns this process's scans first, then older history.
func (s *Server) listScans(c *gin.Context) {
	scans := s.scanMgr.List()

	history, err := s.scanMgr.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	scans = append(scans, history...)

	c.JSON(http.StatusOK, gin.H{
		"scans": scans,
		"total": len(scans),
	})
}

// getScan returns one scan with its stored findings.
func (s *Server) getScan(c *gin.Context) {
	id := c.Param("id")

	scan, ok := s.scanMgr.Get(id)
	if !ok {
		if s.store == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		rec, err := s.store.GetScan(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		scan = recordView(*rec)
	}

	findings := []vulnscan.Finding{}
	if s.store != nil {
		if stored, err := s.store.GetFindings(c.Request.Context(), id); err == nil {
			findings = stored
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"scan":     scan,
		"findings": findings,
		"total":    len(findings),
	})
}

type reportInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

func (s *Server) reportsDir() string {
	return filepath.Join(s.cfg.ScanConfig.OutputDir, "Reports")
}

// listReports enumerates generated report files.
func (s *Server) listReports(c *gin.Context) {
	entries, err := os.ReadDir(s.reportsDir())
	if err != nil {
		// No reports yet is not an error.
		c.JSON(http.StatusOK, gin.H{"reports": []reportInfo{}, "total": 0})
		return
	}

	reports := make([]reportInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, reportInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}

// getReport serves one report file by name.
func (s *Server) getReport(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".json") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report name"})
		return
	}

	path := filepath.Join(s.reportsDir(), name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.File(path)
}
