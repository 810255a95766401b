package otel_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/common/otel"
	"basegraph.app/autoresponder/core/config"
)

var _ = Describe("ParseHeaders", func() {
	It("splits comma separated pairs", func() {
		Expect(otel.ParseHeaders("authorization=Bearer abc, x-team = support")).To(Equal(map[string]string{
			"authorization": "Bearer abc",
			"x-team":        "support",
		}))
	})

	It("keeps values containing '='", func() {
		Expect(otel.ParseHeaders("sig=a=b")).To(HaveKeyWithValue("sig", "a=b"))
	})

	It("ignores malformed pairs", func() {
		Expect(otel.ParseHeaders("novalue,,k=v")).To(Equal(map[string]string{"k": "v"}))
	})
})

var _ = Describe("Setup", func() {
	It("is disabled without an endpoint", func() {
		t, err := otel.Setup(context.Background(), config.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(BeNil())
		Expect(t.Shutdown(context.Background())).To(Succeed())
	})
})
