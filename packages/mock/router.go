package mock

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	httpclient "github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"github.com/gin-gonic/gin"
)

const (
	HealthPath   = "/api/health"
	ClassifyPath = "/api/classify"
)

func (s *Server) newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestLog())

	engine.GET(HealthPath, s.handleHealth)

	api := engine.Group("/")
	api.Use(s.delayResponses(), s.requireAuth())
	api.POST(ClassifyPath, s.handleClassify)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.verbose {
			s.logger.Infof("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
				c.Writer.Status(), time.Since(start).Round(time.Millisecond))
		}
	}
}

func (s *Server) delayResponses() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.delay <= 0 {
			c.Next()
			return
		}
		select {
		case <-time.After(s.delay):
			c.Next()
		case <-c.Request.Context().Done():
			c.Abort()
		}
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" && s.apiKey == "" {
			c.Next()
			return
		}
		if s.token != "" {
			bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
			if ok && secureEqual(bearer, s.token) {
				c.Next()
				return
			}
		}
		if s.apiKey != "" && secureEqual(c.GetHeader(httpclient.APIKeyHeader), s.apiKey) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleClassify(c *gin.Context) {
	s.requests.Add(1)

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "businessName is required"})
		return
	}
	images, err := req.imageCount()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"businessType": classifyBusiness(req.BusinessName),
		"imageCount":   images,
	}
	if req.Metadata.RequestID != "" {
		resp["requestId"] = req.Metadata.RequestID
	}
	if !s.noComparison {
		resp[s.field] = compareNames(req.BusinessName, s.referenceName)
	}
	c.JSON(http.StatusOK, resp)
}
