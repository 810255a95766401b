package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/internal/http/handler/webhook"
	"basegraph.app/autoresponder/internal/http/middleware"
	"basegraph.app/autoresponder/internal/http/router"
	"basegraph.app/autoresponder/internal/ticket"
)

type nopLoader struct{}

func (nopLoader) LoadTicket(context.Context, int64) (*ticket.Snapshot, error) {
	return &ticket.Snapshot{}, nil
}

type nopStarter struct{}

func (nopStarter) Start(context.Context, *ticket.Snapshot) error { return nil }

var _ = Describe("SetupRoutes", func() {
	var engine *gin.Engine

	BeforeEach(func() {
		engine = gin.New()
		engine.Use(middleware.Recovery(), middleware.Logger())
		router.SetupRoutes(engine, webhook.NewZendeskWebhookHandler("secret", nopLoader{}, nopStarter{}))
	})

	serve := func(method, path string, body []byte) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(method, path, bytes.NewReader(body)))
		return w
	}

	It("answers health checks", func() {
		w := serve(http.MethodGet, "/health", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})

	It("exposes prometheus metrics", func() {
		serve(http.MethodPost, "/webhooks/zendesk", []byte(`{}`))

		w := serve(http.MethodGet, "/metrics", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`autoresponder_webhook_requests_total{status="401"}`))
	})

	It("routes zendesk deliveries to the webhook handler", func() {
		w := serve(http.MethodPost, "/webhooks/zendesk", []byte(`{}`))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("Recovery", func() {
	It("turns a panic into a 500", func() {
		engine := gin.New()
		engine.Use(middleware.Recovery())
		engine.GET("/boom", func(*gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"internal server error"}`))
	})
})
