package internal_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reporting/internal"
)

var _ = Describe("Config", func() {
	valid := func() internal.Config {
		return internal.Config{
			Server: internal.ServerConfig{ReadHeaderTimeout: time.Second, ReadTimeout: 2 * time.Second},
			Security: internal.SecurityConfig{
				AccessTokenSecret:  "access",
				RefreshTokenSecret: "refresh",
			},
		}
	}

	It("accepts a minimal configuration", func() {
		cfg := valid()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.Database.DriverName()).To(Equal(internal.DatabaseDriverPostgres))
		Expect(cfg.Server.Origins()).To(Equal([]string{"*"}))
	})

	It("collects every broken section", func() {
		cfg := valid()
		cfg.Security.RefreshTokenSecret = "access"
		cfg.Storage.Driver = internal.StorageDriverGCS
		cfg.Redis.Enabled = true

		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("security config")))
		Expect(err).To(MatchError(ContainSubstring("storage config: bucket is required")))
		Expect(err).To(MatchError(ContainSubstring("redis config")))
	})

	It("rejects an unknown database driver", func() {
		cfg := valid()
		cfg.Database.Driver = "mysql"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring(`unsupported driver "mysql"`)))
	})

	It("loads defaults from the environment", func() {
		GinkgoT().Setenv("JWT_ACCESS_SECRET", "a")
		GinkgoT().Setenv("JWT_REFRESH_SECRET", "b")
		GinkgoT().Setenv("REFUND_DUE_DAYS", "30")
		GinkgoT().Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

		cfg, err := internal.LoadConfigFromEnv()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Refund.DueDays).To(Equal(30))
		Expect(cfg.Notification.Workers).To(Equal(4))
		Expect(cfg.Redis.Channel).To(Equal(internal.DefaultRedisChannel))
		Expect(cfg.Server.Origins()).To(ConsistOf("https://app.example.com", "https://admin.example.com"))
	})

	It("fails fast without token secrets", func() {
		GinkgoT().Setenv("JWT_ACCESS_SECRET", "")
		GinkgoT().Setenv("JWT_REFRESH_SECRET", "")
		_, err := internal.LoadConfigFromEnv()
		Expect(err).To(HaveOccurred())
	})
})
