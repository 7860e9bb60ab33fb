// Package testutil provides shared fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"contentflow/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// OpenTestDB opens a fresh in-memory sqlite database with foreign key
// enforcement on and the full schema migrated. Each call gets its own
// database so parallel tests do not share state.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CountingLogger records how many SQL statements GORM executed. Attach with
// db.Session(&gorm.Session{Logger: cl}).
type CountingLogger struct {
	logger.Interface
	Queries atomic.Int64
}

func NewCountingLogger() *CountingLogger {
	return &CountingLogger{Interface: logger.Default.LogMode(logger.Silent)}
}

func (l *CountingLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	l.Queries.Add(1)
	l.Interface.Trace(ctx, begin, fc, err)
}
