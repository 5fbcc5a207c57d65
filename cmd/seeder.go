package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/approval"
	categoryDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	notificationDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/notification"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users and the default expense categories.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		conns, err := database.Open(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer conns.Close()

		if err := seed(ctx, conns.Gorm, clearData, bcrypt.DefaultCost, os.Stdout); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

type seedUser struct {
	Email    string
	FullName string
	Role     coreUser.Role
}

var seedUsers = []seedUser{
	{"admin@example.com", "Ada Admin", coreUser.RoleAdmin},
	{"manager@example.com", "Marco Manager", coreUser.RoleManager},
	{"employee@example.com", "Emma Employee", coreUser.RoleEmployee},
}

func ptr[T any](v T) *T { return &v }

var seedCategories = []categoryDatamodel.Category{
	{Name: "Food & Drinks", Description: "Restaurants, coffee shops, meals", Icon: "🍔", Color: "#EF4444", MaxAmount: ptr[int64](5000)},
	{Name: "Transport", Description: "Taxi, ride hailing, fuel, parking", Icon: "🚗", Color: "#3B82F6", MaxAmount: ptr[int64](10000)},
	{Name: "Lodging", Description: "Hotels, short term rentals", Icon: "🏨", Color: "#8B5CF6", MaxAmount: ptr[int64](20000)},
	{Name: "Office", Description: "Office supplies and equipment", Icon: "💼", Color: "#10B981", MaxAmount: ptr[int64](15000)},
	{Name: "Technology", Description: "Software, hardware, subscriptions", Icon: "💻", Color: "#6366F1", MaxAmount: ptr[int64](50000)},
	{Name: "Entertainment", Description: "Clients, events, gifts", Icon: "🎭", Color: "#EC4899", MaxAmount: ptr[int64](10000)},
	{Name: "Other", Description: "Miscellaneous expenses", Icon: "📦", Color: "#6B7280"},
}

// seed is idempotent: existing users and categories are matched by their unique names and left alone.
func seed(ctx context.Context, db *gorm.DB, clear bool, cost int, out io.Writer) error {
	db = db.WithContext(ctx)

	if clear {
		if err := clearTables(db); err != nil {
			return err
		}
		fmt.Fprintln(out, "Cleared existing data")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	for _, u := range seedUsers {
		row := userDatamodel.User{
			Email:        u.Email,
			FullName:     u.FullName,
			PasswordHash: string(hash),
			Role:         string(u.Role),
			IsActive:     true,
		}
		exists, err := rowExists(db, &userDatamodel.User{}, "email = ?", u.Email)
		if err != nil {
			return err
		}
		if exists {
			fmt.Fprintf(out, "%s user already exists\n", u.Email)
			continue
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert user %s: %w", u.Email, err)
		}
		fmt.Fprintf(out, "Seeded %s user: %s\n", u.Role, u.Email)
	}

	for _, c := range seedCategories {
		row := c
		row.IsActive = true
		exists, err := rowExists(db, &categoryDatamodel.Category{}, "name = ?", c.Name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.Name, err)
		}
		fmt.Fprintf(out, "Seeded expense category: %s\n", c.Name)
	}

	fmt.Fprintln(out, "Expense categories seeded successfully")
	return nil
}

func rowExists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// clearTables deletes children before parents so foreign keys hold on postgres.
func clearTables(db *gorm.DB) error {
	models := []interface{}{
		&notificationDatamodel.Notification{},
		&refundDatamodel.Refund{},
		&approvalDatamodel.Approval{},
		&expenseDatamodel.Expense{},
		&reportDatamodel.Report{},
		&tripDatamodel.Trip{},
		&categoryDatamodel.Category{},
		&userDatamodel.User{},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range models {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return nil
	})
}
