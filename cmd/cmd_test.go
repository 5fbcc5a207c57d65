package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	categoryDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/category"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
)

const testConfig = `
environment: development
http_server:
  port: 9090
  allowed_origins: "http://localhost:3000, http://localhost:5173"
  read_header_timeout: 5s
  read_timeout: 15s
  write_timeout: 30s
  idle_timeout: 60s
database:
  driver: sqlite
  source: ":memory:"
  max_open_conns: 1
  max_idle_conns: 1
security:
  access_token_secret: access-secret
  refresh_token_secret: refresh-secret
  access_token_duration: 30m
  refresh_token_duration: 168h
  bcrypt_cost: 4
storage:
  driver: local
  local_dir: uploads
refund:
  due_days: 10
`

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv("APP_ENV", "")
		GinkgoT().Setenv("DOCKER_ENV", "")
	})

	It("reads config.yml from the given directory", func() {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(testConfig), 0o600)).To(Succeed())

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9090))
		Expect(cfg.Server.Origins()).To(Equal([]string{"http://localhost:3000", "http://localhost:5173"}))
		Expect(cfg.Database.DriverName()).To(Equal(internal.DatabaseDriverSQLite))
		Expect(cfg.Security.BCryptCost).To(Equal(4))
		Expect(cfg.Refund.DueDays).To(Equal(10))
		Expect(cfg.IsProduction()).To(BeFalse())
	})

	It("rejects an invalid file", func() {
		broken := `
security:
  access_token_secret: same
  refresh_token_secret: same
`
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(broken), 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("secrets must differ")))
	})

	It("fails without a config file", func() {
		_, err := loadConfig(dir)
		Expect(err).To(HaveOccurred())
	})

	It("uses the environment in containers", func() {
		GinkgoT().Setenv("DOCKER_ENV", "true")
		GinkgoT().Setenv("JWT_ACCESS_SECRET", "a")
		GinkgoT().Setenv("JWT_REFRESH_SECRET", "b")
		GinkgoT().Setenv("PORT", "7000")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(7000))
		Expect(cfg.IsProduction()).To(BeTrue())
	})
})

var _ = Describe("seed", func() {
	var (
		conns *database.Connections
		ctx   context.Context
		out   *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		conns, err = database.OpenSQLiteMemory()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(conns.Close)
		ctx = context.Background()
		out = &bytes.Buffer{}
	})

	countRows := func(model interface{}) int64 {
		var n int64
		Expect(conns.Gorm.Model(model).Count(&n).Error).To(Succeed())
		return n
	}

	It("creates one user per role and the default categories", func() {
		Expect(seed(ctx, conns.Gorm, false, bcrypt.MinCost, out)).To(Succeed())

		Expect(countRows(&userDatamodel.User{})).To(Equal(int64(3)))
		Expect(countRows(&categoryDatamodel.Category{})).To(Equal(int64(len(seedCategories))))

		var admin userDatamodel.User
		Expect(conns.Gorm.Where("email = ?", "admin@example.com").First(&admin).Error).To(Succeed())
		Expect(admin.Role).To(Equal("admin"))
		Expect(admin.IsActive).To(BeTrue())
		Expect(bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(seedPassword))).To(Succeed())
	})

	It("is safe to run twice", func() {
		Expect(seed(ctx, conns.Gorm, false, bcrypt.MinCost, out)).To(Succeed())
		Expect(seed(ctx, conns.Gorm, false, bcrypt.MinCost, out)).To(Succeed())

		Expect(countRows(&userDatamodel.User{})).To(Equal(int64(3)))
		Expect(countRows(&categoryDatamodel.Category{})).To(Equal(int64(len(seedCategories))))
		Expect(out.String()).To(ContainSubstring("admin@example.com user already exists"))
	})

	It("clears existing data first when asked", func() {
		Expect(conns.Gorm.Create(&userDatamodel.User{
			Email: "stale@example.com", FullName: "Stale", PasswordHash: "x", Role: "employee", IsActive: true,
		}).Error).To(Succeed())

		Expect(seed(ctx, conns.Gorm, true, bcrypt.MinCost, out)).To(Succeed())

		Expect(countRows(&userDatamodel.User{})).To(Equal(int64(3)))
		Expect(out.String()).To(ContainSubstring("Cleared existing data"))
	})
})
