package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crushapp/crush-server/internal/config"
	svcErr "github.com/crushapp/crush-server/internal/errors"
)

// callerHeader carries the authenticated user id, set by the gateway in
// front of this service. Requests without it are rejected before routing.
const callerHeader = "X-User-ID"

const callerKey = "callerID"

// NewRouter builds the gin engine with all service routes mounted under
// /api behind the identity middleware.
func NewRouter(cfg *config.Config, registrars ...Registrar) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(requireCaller())

	for _, r := range registrars {
		r.Register(api)
	}

	return router
}

// StartHTTPServer boots the HTTP server and blocks until it exits.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	router := NewRouter(cfg, registrars...)
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return router.Run(addr)
}

// requireCaller extracts the caller id from the identity header.
func requireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(callerHeader)
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or invalid " + callerHeader + " header",
			})
			return
		}
		c.Set(callerKey, id)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by the identity middleware.
func CallerID(c *gin.Context) uint64 {
	return c.GetUint64(callerKey)
}

// RespondError writes a service error as JSON with the mapped status code.
func RespondError(c *gin.Context, err error) {
	c.JSON(svcErr.HTTPStatus(err), gin.H{"error": err.Error()})
}
