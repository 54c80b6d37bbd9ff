package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	cfg "photoapp/src/configuration"
	"photoapp/src/metrics"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MetaDB runs raw SQL against the metadata store. Arguments are always bound
// through ? placeholders. Failures are logged here and returned as errors;
// nothing panics past this type.
type MetaDB struct {
	db       *gorm.DB
	endpoint string
	log      *zap.SugaredLogger
}

// Connect opens the MySQL connection and pings it. The pool holds a single
// connection for the lifetime of the process.
func Connect(config cfg.RDSProperties, logLevel string, log *zap.SugaredLogger) (*MetaDB, error) {
	gLogger := logger.New(
		gormWriter{log},
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(config.DSN()), &gorm.Config{
		Logger:                 gLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Errorw("failed to connect database", "endpoint", config.Endpoint, "error", err)
		return nil, fmt.Errorf("connect to %s: %w", config.Endpoint, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		log.Errorw("database ping failed", "endpoint", config.Endpoint, "error", err)
		return nil, fmt.Errorf("ping %s: %w", config.Endpoint, err)
	}

	return NewMetaDB(db, config.Endpoint, log), nil
}

// NewMetaDB wraps an already opened gorm handle.
func NewMetaDB(db *gorm.DB, endpoint string, log *zap.SugaredLogger) *MetaDB {
	return &MetaDB{
		db:       db,
		endpoint: endpoint,
		log:      log,
	}
}

// Endpoint is the network host of the metadata store.
func (m *MetaDB) Endpoint() string {
	return m.endpoint
}

func (m *MetaDB) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FetchOne scans the first row of query into dest. found is false, with a nil
// error, when the query returned no rows.
func (m *MetaDB) FetchOne(ctx context.Context, dest any, query string, args ...any) (found bool, err error) {
	tx := m.db.WithContext(ctx).Raw(query, args...).Scan(dest)
	metrics.RecordStore(metrics.StoreMetadata, "fetch_one", tx.Error)
	if tx.Error != nil {
		m.log.Errorw("fetch one failed", "query", compact(query), "args", args, "error", tx.Error)
		return false, fmt.Errorf("fetch one: %w", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// FetchAll scans every row of query into dest, which must point to a slice.
func (m *MetaDB) FetchAll(ctx context.Context, dest any, query string, args ...any) error {
	tx := m.db.WithContext(ctx).Raw(query, args...).Scan(dest)
	metrics.RecordStore(metrics.StoreMetadata, "fetch_all", tx.Error)
	if tx.Error != nil {
		m.log.Errorw("fetch all failed", "query", compact(query), "args", args, "error", tx.Error)
		return fmt.Errorf("fetch all: %w", tx.Error)
	}
	return nil
}

// Execute runs a single statement and returns the number of affected rows.
func (m *MetaDB) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	tx := m.db.WithContext(ctx).Exec(stmt, args...)
	metrics.RecordStore(metrics.StoreMetadata, "execute", tx.Error)
	if tx.Error != nil {
		m.log.Errorw("execute failed", "stmt", compact(stmt), "args", args, "error", tx.Error)
		return 0, fmt.Errorf("execute: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// Insert runs an INSERT and returns the generated id. Both statements run on
// the same connection so LAST_INSERT_ID belongs to this insert.
func (m *MetaDB) Insert(ctx context.Context, stmt string, args ...any) (int64, error) {
	var id int64
	err := m.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec(stmt, args...).Error; err != nil {
			return err
		}
		return conn.Raw(lastInsertIDSQL).Scan(&id).Error
	})
	metrics.RecordStore(metrics.StoreMetadata, "insert", err)
	if err != nil {
		m.log.Errorw("insert failed", "stmt", compact(stmt), "args", args, "error", err)
		return 0, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// toGormLogLevel maps the application log level to gorm's.
func toGormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// gormWriter sends gorm's own log lines to zap instead of stdout.
type gormWriter struct {
	log *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debugf(format, args...)
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
