package database

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"topglass/internal/domain/admin"
	"topglass/internal/domain/lead"
	"topglass/internal/domain/notification"
	"topglass/internal/domain/ratelimit"
	"topglass/internal/domain/upload"
	"topglass/internal/pkg/logger"
)

// Connect opens PostgreSQL for postgres:// DSNs and the pure Go SQLite
// driver for anything else.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	log = logger.OrNop(log)
	cfg := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(log.Named("gorm")), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	if IsPostgres(dsn) {
		log.Info("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.Info("using SQLite for local development", zap.String("dsn", dsn))
	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
}

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&lead.Lead{},
		&ratelimit.Entry{},
		&upload.Upload{},
		&notification.Delivery{},
		&admin.AdminUser{},
	)
}
