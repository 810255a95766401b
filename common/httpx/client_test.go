package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/hashicorp/go-retryablehttp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/common/httpx"
)

var _ = Describe("clients", func() {
	var (
		hits   atomic.Int32
		server *httptest.Server
	)

	BeforeEach(func() {
		hits.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		DeferCleanup(server.Close)
	})

	It("retries reads twice and returns the last response", func() {
		resp, err := httpx.NewReader(nil).Get(server.URL)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		Expect(hits.Load()).To(Equal(int32(3)))
	})

	It("never retries writes", func() {
		req, err := retryablehttp.NewRequest(http.MethodPut, server.URL, []byte(`{}`))
		Expect(err).NotTo(HaveOccurred())

		resp, err := httpx.NewWriter(nil).Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(hits.Load()).To(Equal(int32(1)))
	})

	DescribeTable("IsSuccess",
		func(status int, ok bool) {
			Expect(httpx.IsSuccess(status)).To(Equal(ok))
		},
		Entry("200", 200, true),
		Entry("204", 204, true),
		Entry("301", 301, false),
		Entry("404", 404, false),
	)
})
