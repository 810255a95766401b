package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/core/config"
)

func setEnv(key, value string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(key string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Unsetenv(key)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		}
	})
}

var _ = Describe("Load", func() {
	BeforeEach(func() {
		setEnv("APP_ENV", "test")
		setEnv("ZENDESK_SUBDOMAIN", "acme")
		setEnv("ZENDESK_API_USER", "agent@acme.com")
		setEnv("ZENDESK_API_TOKEN", "token")
		setEnv("ZENDESK_WEBHOOK_SECRET", "secret")
		setEnv("INKEEP_API_KEY", "inkeep")
		for _, key := range []string{
			"AUTO_RESPONDER_INKEEP_API_KEY", "INKEEP_ANALYTICS_API_KEY", "AI_AGENT_USER_ID",
			"ENABLE_PUBLIC_RESPONSES", "AI_TRIAGE_ENABLED", "PIPELINE_MODE", "PIPELINE_TIMEOUT",
			"PIPELINE_MAX_CONCURRENCY",
		} {
			unsetEnv(key)
		}
	})

	It("applies defaults", func() {
		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Agent.UserID).To(BeNil())
		Expect(cfg.Agent.PublicResponses).To(BeFalse())
		Expect(cfg.Agent.TriageEnabled).To(BeFalse())
		Expect(cfg.Analytics.APIKey).To(Equal("inkeep"))
		Expect(cfg.Pipeline.Mode).To(Equal(config.PipelineModeInline))
		Expect(cfg.Pipeline.Timeout).To(Equal(60 * time.Second))
		Expect(cfg.Pipeline.MaxConcurrency).To(Equal(16))
		Expect(cfg.Inkeep.QAModel).To(Equal("inkeep-qa-expert"))
		Expect(cfg.Inkeep.ContextModel).To(Equal("inkeep-context-expert"))
	})

	It("reads the agent flags", func() {
		setEnv("AI_AGENT_USER_ID", "900")
		setEnv("ENABLE_PUBLIC_RESPONSES", "true")
		setEnv("AI_TRIAGE_ENABLED", "yes")
		setEnv("PIPELINE_MODE", "queue")
		setEnv("PIPELINE_TIMEOUT", "45s")

		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Agent.UserID).To(HaveValue(Equal(int64(900))))
		Expect(cfg.Agent.PublicResponses).To(BeTrue())
		Expect(cfg.Agent.TriageEnabled).To(BeFalse())
		Expect(cfg.Pipeline.Queued()).To(BeTrue())
		Expect(cfg.Pipeline.Timeout).To(Equal(45 * time.Second))
	})

	It("accepts the legacy inkeep key name", func() {
		unsetEnv("INKEEP_API_KEY")
		setEnv("AUTO_RESPONDER_INKEEP_API_KEY", "legacy")

		cfg, err := config.Load(config.ServiceTypeWorker)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Inkeep.APIKey).To(Equal("legacy"))
	})

	It("rejects a non-numeric agent id", func() {
		setEnv("AI_AGENT_USER_ID", "bot")

		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("AI_AGENT_USER_ID")))
	})

	It("requires the webhook secret only for the server", func() {
		setEnv("ZENDESK_WEBHOOK_SECRET", "")

		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("ZENDESK_WEBHOOK_SECRET")))

		_, err = config.Load(config.ServiceTypeReplay)
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires zendesk credentials", func() {
		setEnv("ZENDESK_API_TOKEN", "")

		_, err := config.Load(config.ServiceTypeWorker)
		Expect(err).To(MatchError(ContainSubstring("ZENDESK_API_TOKEN")))
	})

	It("rejects unknown pipeline modes", func() {
		setEnv("PIPELINE_MODE", "lambda")

		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("PIPELINE_MODE")))
	})
})
