// Package testutil builds isolated stores for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Payphone-Digital/learnpath/config"
	"github.com/Payphone-Digital/learnpath/pkg/database"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// TestConfig returns a configuration suitable for tests: sqlite, cheap
// bcrypt, short token lifetimes.
func TestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "learnpath-test", Environment: "test"},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
		},
		JWT: config.JWTConfig{
			Secret:             "test-secret-with-at-least-32-characters!",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Auth: config.AuthConfig{BcryptCost: 4},
		CORS: config.CORSConfig{Origins: []string{config.DefaultCORSOrigin}},
	}
}

// NewDB opens a private in-memory sqlite store with the schema migrated and
// the topic catalogue seeded. It is closed when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := TestConfig()
	cfg.Database.Path = fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.NewDB(cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.CloseDB(db) })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed test db: %v", err)
	}
	return db
}
