package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"research-verifier/config"
	"research-verifier/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func newRouter(cfg *config.Config, svc *services.VerificationService, profiles services.ProfileStore, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLogger(log))
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(serviceName))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gateway := router.Group("/", apiKeyAuthMiddleware(cfg))
	gateway.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := gateway.Group("/", jwtAuthMiddleware(cfg.JWTSecret))
	setupVerificationRoutes(authed, svc, log)
	setupProfileRoutes(authed, profiles, log)
	return router
}

func setupVerificationRoutes(router *gin.RouterGroup, svc *services.VerificationService, log *zap.Logger) {
	rg := router.Group("/messages/:id")

	rg.POST("/verify", func(c *gin.Context) {
		messageID, ok := messageIDParam(c)
		if !ok {
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		res, err := svc.Verify(c.Request.Context(), messageID, currentUserID(c), services.VerifyOptions{
			Model: strings.TrimSpace(req.Model),
		})
		if err != nil {
			respondError(c, err, log)
			return
		}
		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		c.JSON(status, res.Verification)
	})

	rg.GET("/verification", func(c *gin.Context) {
		messageID, ok := messageIDParam(c)
		if !ok {
			return
		}
		mv, err := svc.Get(c.Request.Context(), messageID, currentUserID(c))
		if err != nil {
			respondError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, mv)
	})
}

func setupProfileRoutes(router *gin.RouterGroup, profiles services.ProfileStore, log *zap.Logger) {
	rg := router.Group("/profile")

	rg.PUT("/api-key", func(c *gin.Context) {
		var req struct {
			APIKey string `json:"api_key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.APIKey) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
			return
		}
		if err := profiles.SetAPIKey(c.Request.Context(), currentUserID(c), strings.TrimSpace(req.APIKey)); err != nil {
			respondError(c, err, log)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rg.DELETE("/api-key", func(c *gin.Context) {
		if err := profiles.SetAPIKey(c.Request.Context(), currentUserID(c), ""); err != nil {
			respondError(c, err, log)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func messageIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
		return 0, false
	}
	return uint(id), true
}

// httpStatusFor maps service errors to a status and a client-facing message.
func httpStatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, errorDetail(err, services.ErrNotFound, "Message not found")
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusBadRequest, errorDetail(err, services.ErrInvalidState, "Invalid state")
	case errors.Is(err, services.ErrMissingCredential):
		return http.StatusBadRequest, errorDetail(err, services.ErrMissingCredential, "Missing credential")
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// errorDetail strips the sentinel prefix added by fmt.Errorf("%w: ...").
func errorDetail(err, sentinel error, fallback string) string {
	if err == sentinel {
		return fallback
	}
	detail := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if detail == "" {
		return fallback
	}
	return strings.ToUpper(detail[:1]) + detail[1:]
}

func respondError(c *gin.Context, err error, log *zap.Logger) {
	status, msg := httpStatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
