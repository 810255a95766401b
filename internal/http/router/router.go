package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"basegraph.app/autoresponder/internal/http/handler/webhook"
)

func SetupRoutes(router *gin.Engine, zendeskHandler *webhook.ZendeskWebhookHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	WebhookRouter(router.Group("/webhooks"), zendeskHandler)
}
