package database

import (
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OptimizedIndexes creates the partial indexes gorm tags cannot express.
// Only postgres supports them; other drivers are skipped.
func OptimizedIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	indexes := []string{
		// Verify and ListActiveForUser only touch live rows.
		"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_active ON refresh_tokens(user_id, expires_at) WHERE revoked = false;",
		// DeleteExpired sweeps the terminal subset.
		"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_revoked ON refresh_tokens(id) WHERE revoked = true;",
		"CREATE INDEX IF NOT EXISTS idx_quiz_results_perfect ON quiz_results(user_id) WHERE percentage = 100;",
		"CREATE INDEX IF NOT EXISTS idx_user_progress_user_topic ON user_progress(user_id, topic_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email));",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			// Missing indexes slow queries down but never break them.
			logger.GetLogger().Warn("Failed to create index",
				zap.String("sql", indexSQL),
				zap.Error(err),
			)
		}
	}

	logger.GetLogger().Info("Optimized indexes created")
	return nil
}
