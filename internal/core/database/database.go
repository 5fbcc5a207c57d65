package database

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/expense-reporting/internal"
	approvalDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/approval"
	categoryDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/expense"
	notificationDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/notification"
	refundDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/refund"
	reportDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/report"
	tripDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/trip"
	userDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/user"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connections holds the two views over one connection pool: sqlx for hand written
// read queries and gorm for the domain repositories.
type Connections struct {
	SQLX *sqlx.DB
	Gorm *gorm.DB
}

func (c *Connections) Close() error {
	if c == nil || c.SQLX == nil {
		return nil
	}
	return c.SQLX.Close()
}

// Open connects to the configured database and shares the pool between sqlx and gorm.
func Open(ctx context.Context, cfg internal.DatabaseConfig) (*Connections, error) {
	switch cfg.DriverName() {
	case internal.DatabaseDriverSQLite:
		gdb, err := gorm.Open(sqlite.Open(cfg.GetDSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		return &Connections{SQLX: sqlx.NewDb(sqlDB, "sqlite3"), Gorm: gdb}, nil
	default:
		db, err := sqlx.ConnectContext(ctx, "pgx", cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open gorm: %w", err)
		}
		return &Connections{SQLX: db, Gorm: gdb}, nil
	}
}

// OpenSQLiteMemory returns an in-memory sqlite database with the full schema applied.
func OpenSQLiteMemory() (*Connections, error) {
	conns, err := Open(context.Background(), internal.DatabaseConfig{
		Driver: internal.DatabaseDriverSQLite,
		Source: ":memory:",
	})
	if err != nil {
		return nil, err
	}
	conns.Gorm.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	if err := AutoMigrate(conns.Gorm); err != nil {
		conns.Close()
		return nil, err
	}
	return conns, nil
}

func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&categoryDatamodel.Category{},
		&tripDatamodel.Trip{},
		&reportDatamodel.Report{},
		&expenseDatamodel.Expense{},
		&approvalDatamodel.Approval{},
		&refundDatamodel.Refund{},
		&notificationDatamodel.Notification{},
	}
}

// AutoMigrate creates the schema from the gorm models. Postgres deployments use the
// goose migrations under db/migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
