package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/autoresponder/internal/http/handler/webhook"
)

func WebhookRouter(router *gin.RouterGroup, zendeskHandler *webhook.ZendeskWebhookHandler) {
	router.POST("/zendesk", zendeskHandler.HandleEvent)
}
