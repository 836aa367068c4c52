package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the frontend pages from the configured directory:
// index.html at the root, issue.html for a single project segment, and
// public/ assets. Unknown API paths always get a JSON 404.
func (s *Server) mountStatic() {
	var indexPath, issuePath string

	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
	} else if info, err := os.Stat(s.staticDir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.staticDir, "error", err)
	} else {
		indexPath = existing(filepath.Join(s.staticDir, "index.html"))
		issuePath = existing(filepath.Join(s.staticDir, "issue.html"))
		if indexPath == "" {
			s.logger.Warn("index.html not found", "dir", s.staticDir)
		} else {
			s.engine.GET("/", func(c *gin.Context) {
				c.File(indexPath)
			})
		}

		publicDir := filepath.Join(s.staticDir, "public")
		if _, err := os.Stat(publicDir); err == nil {
			s.engine.StaticFS("/public", gin.Dir(publicDir, false))
		}

		favicon := filepath.Join(s.staticDir, "favicon.ico")
		if _, err := os.Stat(favicon); err == nil {
			s.engine.StaticFile("/favicon.ico", favicon)
		}
	}

	s.engine.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		switch {
		case strings.HasPrefix(path, "/api/"):
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
		case issuePath != "" && isProjectPage(path):
			c.File(issuePath)
		case indexPath != "":
			c.File(indexPath)
		default:
			c.String(http.StatusNotFound, "Not Found")
		}
	})
}

// isProjectPage reports whether path is a single segment such as "/apitest/".
func isProjectPage(path string) bool {
	segment := strings.Trim(path, "/")
	return segment != "" && !strings.Contains(segment, "/")
}

func existing(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
