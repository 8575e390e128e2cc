// internal/database/connection.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/config"
	"github.com/javajoker/curated-market/internal/models"
)

var DB *gorm.DB

// GormConfig is shared by the server and the test harness.
func GormConfig(logLevel string) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(logLevel)),
		TranslateError: true,
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg.DSN(), cfg.NormalizedLogLevel())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db
	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func Open(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Product{},
		&models.ProductReview{},
		&models.Order{},
		&models.CustomerReview{},
		&models.SellerResponse{},
		&models.RedeemableProduct{},
		&models.ProductRedemption{},
		&models.PointsTransaction{},
		&models.Notification{},
		&models.AuditLog{},
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db)

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_role_status ON users(role, status)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_status ON products(category, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('english', title || ' ' || coalesce(description, '')))",

		"CREATE INDEX IF NOT EXISTS idx_product_reviews_product_status ON product_reviews(product_id, status)",

		"CREATE INDEX IF NOT EXISTS idx_orders_customer_product ON orders(customer_id, product_id, payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_points_transactions_user_created ON points_transactions(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_status ON notifications(user_id, status, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Non-fatal; the unique constraints live on the models.
			logrus.WithError(err).WithField("statement", index).Warn("Failed to create index")
		}
	}
}

// SeedInitialData creates the bootstrap admin and a starter redemption catalog.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data")

	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@curated-market.local",
			Role:     models.RoleAdmin,
			Status:   models.UserStatusActive,
			ProfileData: models.JSONB{
				"first_name": "System",
				"last_name":  "Administrator",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.Info("Default admin user created")
	}

	catalog := []models.RedeemableProduct{
		{Name: "Curator Tote Bag", Description: "Canvas tote for active curators", PointsCost: 300, Stock: 50, IsActive: true},
		{Name: "Premium Template Pack", Description: "Bundle of seller-donated templates", PointsCost: 800, Stock: 100, IsActive: true},
		{Name: "Featured Curator Badge", Description: "Profile badge shown on reviews", PointsCost: 1500, Stock: 20, IsActive: true},
	}

	for _, item := range catalog {
		var count int64
		db.Model(&models.RedeemableProduct{}).Where("name = ?", item.Name).Count(&count)
		if count > 0 {
			continue
		}
		item := item
		if err := db.Create(&item).Error; err != nil {
			logrus.WithError(err).WithField("name", item.Name).Warn("Failed to seed redeemable product")
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// WithTransaction runs fn in one transaction. Any error rolls back every write fn made;
// domain errors pass through and storage errors surface as TRANSACTION_FAILURE.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.AlreadyExists("record already exists")
	}
	return apperrors.AsTransactionFailure(err)
}

// IsDuplicate reports a unique constraint violation surfaced through TranslateError.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
