package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/model"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregates are the counters badge rules are evaluated against.
type Aggregates struct {
	CompletedLessons    int64
	PerfectQuizzes      int64
	CompletedCategories int64
	TotalCategories     int64
}

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Transaction runs fn against a repository bound to one transaction. Any
// error from fn rolls the whole unit back.
func (r *ProgressRepository) Transaction(ctx context.Context, fn func(tx *ProgressRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ProgressRepository{db: tx})
	})
}

// LockStats loads the stats row of userID with SELECT ... FOR UPDATE,
// creating a default row first when the user has none.
func (r *ProgressRepository) LockStats(ctx context.Context, userID uint) (*model.UserStats, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "LockStats")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Concurrent first writers race on the unique user_id; the loser's
	// insert is ignored and both go on to lock the same row.
	seed := model.UserStats{UserID: userID, Level: 1, Badges: datatypes.JSONSlice[string]{}}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&seed).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to ensure stats row").Uint("user_id", userID).Err(err).Log()
		return nil, err
	}

	var stats model.UserStats
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to lock stats row").Uint("user_id", userID).Err(err).Log()
		return nil, err
	}
	return &stats, nil
}

// GetStats reads the stats row without locking; (nil, nil) when absent.
func (r *ProgressRepository) GetStats(ctx context.Context, userID uint) (*model.UserStats, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetStats")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stats model.UserStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get stats").Uint("user_id", userID).Err(err).Log()
		return nil, err
	}
	return &stats, nil
}

func (r *ProgressRepository) SaveStats(ctx context.Context, stats *model.UserStats) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "SaveStats")

	stats.UpdatedAt = time.Now().UTC()
	if stats.Badges == nil {
		stats.Badges = datatypes.JSONSlice[string]{}
	}
	err := r.db.WithContext(ctx).Model(&model.UserStats{}).
		Where("id = ?", stats.ID).
		Updates(map[string]interface{}{
			"total_points":        stats.TotalPoints,
			"level":               stats.Level,
			"badges":              stats.Badges,
			"current_streak":      stats.CurrentStreak,
			"longest_streak":      stats.LongestStreak,
			"last_activity_date":  stats.LastActivityDate,
			"perfect_quiz_streak": stats.PerfectQuizStreak,
			"updated_at":          stats.UpdatedAt,
		}).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to save stats").Uint("user_id", stats.UserID).Err(err).Log()
	}
	return err
}

// InsertCompletion records a lesson completion and reports whether it was
// new. A repeat of (user, topic, lesson) inserts nothing.
func (r *ProgressRepository) InsertCompletion(ctx context.Context, userID, topicID, lessonID uint, at time.Time) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "InsertCompletion")

	row := model.LessonCompletion{
		UserID:      userID,
		TopicID:     topicID,
		LessonID:    lessonID,
		CompletedAt: at.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to insert lesson completion").
			Uint("user_id", userID).
			Uint("topic_id", topicID).
			Uint("lesson_id", lessonID).
			Err(result.Error).
			Log()
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ProgressRepository) InsertQuizResult(ctx context.Context, result *model.QuizResult) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "InsertQuizResult")

	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to insert quiz result").
			Uint("user_id", result.UserID).
			Uint("topic_id", result.TopicID).
			Err(err).
			Log()
		return err
	}
	return nil
}

// ListCompletions returns userID's lesson completions, oldest first.
func (r *ProgressRepository) ListCompletions(ctx context.Context, userID uint) ([]model.LessonCompletion, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ListCompletions")

	var rows []model.LessonCompletion
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list lesson completions").Uint("user_id", userID).Err(err).Log()
		return nil, err
	}
	return rows, nil
}

// ListQuizResults returns userID's quiz submissions, oldest first.
func (r *ProgressRepository) ListQuizResults(ctx context.Context, userID uint) ([]model.QuizResult, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ListQuizResults")

	var rows []model.QuizResult
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list quiz results").Uint("user_id", userID).Err(err).Log()
		return nil, err
	}
	return rows, nil
}

// Aggregates counts completions, perfect quizzes and topic category
// coverage for userID.
func (r *ProgressRepository) Aggregates(ctx context.Context, userID uint) (Aggregates, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "Aggregates")

	var agg Aggregates
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.LessonCompletion{}).
		Where("user_id = ?", userID).
		Count(&agg.CompletedLessons).Error; err != nil {
		return agg, err
	}

	if err := db.Model(&model.QuizResult{}).
		Where("user_id = ? AND percentage = ?", userID, constants.PerfectScore).
		Count(&agg.PerfectQuizzes).Error; err != nil {
		return agg, err
	}

	if err := db.Model(&model.LessonCompletion{}).
		Joins("JOIN topics ON topics.id = user_progress.topic_id").
		Where("user_progress.user_id = ?", userID).
		Distinct("topics.category").
		Count(&agg.CompletedCategories).Error; err != nil {
		return agg, err
	}

	if err := db.Model(&model.Topic{}).
		Distinct("category").
		Count(&agg.TotalCategories).Error; err != nil {
		return agg, err
	}

	return agg, nil
}

// Reset deletes the user's completions and quiz results and zeroes stats.
func (r *ProgressRepository) Reset(ctx context.Context, userID uint) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "ResetProgress")

	start := time.Now()
	db := r.db.WithContext(ctx)

	completions := db.Where("user_id = ?", userID).Delete(&model.LessonCompletion{})
	if completions.Error != nil {
		return completions.Error
	}
	quizzes := db.Where("user_id = ?", userID).Delete(&model.QuizResult{})
	if quizzes.Error != nil {
		return quizzes.Error
	}

	err := db.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_points":        0,
			"level":               1,
			"badges":              datatypes.JSONSlice[string]{},
			"current_streak":      0,
			"longest_streak":      0,
			"last_activity_date":  nil,
			"perfect_quiz_streak": 0,
			"updated_at":          time.Now().UTC(),
		}).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to zero stats").Uint("user_id", userID).Err(err).Log()
		return err
	}

	logger.InfoWithContext(ctx, "Progress reset").
		Uint("user_id", userID).
		Int64("deleted_completions", completions.RowsAffected).
		Int64("deleted_quiz_results", quizzes.RowsAffected).
		Duration(time.Since(start)).
		Log()
	return nil
}
