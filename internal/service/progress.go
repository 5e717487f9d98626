package service

import (
	"context"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/dto"
	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/Payphone-Digital/learnpath/internal/model"
	"github.com/Payphone-Digital/learnpath/internal/repository"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/events"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"gorm.io/datatypes"
)

// ProgressService records lesson completions and quiz results and keeps
// points, streaks, level and badges consistent with them. Every mutation
// runs in one transaction with the user's stats row locked.
type ProgressService struct {
	repo      *repository.ProgressRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewProgressService(repo *repository.ProgressRepository, publisher events.Publisher) *ProgressService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProgressService{repo: repo, publisher: publisher, now: time.Now}
}

// WithClock replaces the clock used for streak dates and timestamps.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

// GetProgress returns the caller's aggregate state. A nil userID is an
// anonymous caller and gets the empty default without a store read.
func (s *ProgressService) GetProgress(ctx context.Context, userID *uint) (*dto.ProgressResponse, error) {
	if userID == nil {
		empty := dto.EmptyProgress()
		return &empty, nil
	}

	ctx = ctxutil.WithFunction(ctx, "service", "GetProgress")

	stats, err := s.repo.GetStats(ctx, *userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if stats == nil {
		empty := dto.EmptyProgress()
		return &empty, nil
	}

	agg, err := s.repo.Aggregates(ctx, *userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	resp, err := s.view(ctx, s.repo, stats, agg)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return &resp, nil
}

// CompleteLesson is idempotent on (user, topic, lesson). A repeat returns
// the current state and awards nothing.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID, topicID, lessonID uint) (*dto.LessonResultResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CompleteLesson")
	start := time.Now()
	now := s.now().UTC()

	var (
		resp    dto.LessonResultResponse
		pending []events.Event
	)

	err := s.repo.Transaction(ctx, func(tx *repository.ProgressRepository) error {
		stats, err := tx.LockStats(ctx, userID)
		if err != nil {
			return err
		}

		inserted, err := tx.InsertCompletion(ctx, userID, topicID, lessonID, now)
		if err != nil {
			return err
		}

		if !inserted {
			agg, err := tx.Aggregates(ctx, userID)
			if err != nil {
				return err
			}
			progress, err := s.view(ctx, tx, stats, agg)
			if err != nil {
				return err
			}
			resp = dto.LessonResultResponse{
				Progress:         progress,
				AlreadyCompleted: true,
				NewBadges:        []string{},
			}
			return nil
		}

		credited, err := s.applyActivity(ctx, tx, stats, constants.LessonCompletionPoints, now)
		if err != nil {
			return err
		}
		progress, err := s.view(ctx, tx, stats, credited.agg)
		if err != nil {
			return err
		}
		pending = credited.events
		resp = dto.LessonResultResponse{
			Progress:     progress,
			PointsEarned: credited.points,
			StreakBonus:  credited.bonus,
			NewBadges:    credited.added,
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to record lesson completion").
			Uint("user_id", userID).
			Uint("topic_id", topicID).
			Uint("lesson_id", lessonID).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Lesson completion recorded").
		Uint("user_id", userID).
		Uint("topic_id", topicID).
		Uint("lesson_id", lessonID).
		Bool("already_completed", resp.AlreadyCompleted).
		Int("points_earned", resp.PointsEarned).
		Int("streak_bonus", resp.StreakBonus).
		Duration(time.Since(start)).
		Log()

	s.publish(ctx, pending)
	return &resp, nil
}

// SaveQuizResult appends a quiz result and credits round(percentage/10)
// points. A perfect score extends the consecutive-perfect counter, any
// other score resets it to zero.
func (s *ProgressService) SaveQuizResult(ctx context.Context, userID, topicID uint, score dto.QuizScore, percentage int) (*dto.QuizResultResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "SaveQuizResult")
	start := time.Now()
	now := s.now().UTC()

	var (
		resp    dto.QuizResultResponse
		pending []events.Event
	)

	err := s.repo.Transaction(ctx, func(tx *repository.ProgressRepository) error {
		stats, err := tx.LockStats(ctx, userID)
		if err != nil {
			return err
		}

		result := &model.QuizResult{
			UserID:      userID,
			TopicID:     topicID,
			Correct:     score.Correct,
			Total:       score.Total,
			Percentage:  percentage,
			CompletedAt: now,
		}
		if err := tx.InsertQuizResult(ctx, result); err != nil {
			return err
		}

		if percentage == constants.PerfectScore {
			stats.PerfectQuizStreak++
		} else {
			stats.PerfectQuizStreak = 0
		}

		credited, err := s.applyActivity(ctx, tx, stats, QuizPoints(percentage), now)
		if err != nil {
			return err
		}
		progress, err := s.view(ctx, tx, stats, credited.agg)
		if err != nil {
			return err
		}
		pending = credited.events
		resp = dto.QuizResultResponse{
			Progress:     progress,
			PointsEarned: credited.points,
			StreakBonus:  credited.bonus,
			Performance:  GradeFor(percentage),
			NewBadges:    credited.added,
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to save quiz result").
			Uint("user_id", userID).
			Uint("topic_id", topicID).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Quiz result saved").
		Uint("user_id", userID).
		Uint("topic_id", topicID).
		Int("percentage", percentage).
		Int("points_earned", resp.PointsEarned).
		Int("streak_bonus", resp.StreakBonus).
		Duration(time.Since(start)).
		Log()

	s.publish(ctx, pending)
	return &resp, nil
}

// Reset removes the user's completions and quiz results and returns the
// stats to their defaults.
func (s *ProgressService) Reset(ctx context.Context, userID uint) (*dto.ProgressResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ResetProgress")

	err := s.repo.Transaction(ctx, func(tx *repository.ProgressRepository) error {
		if _, err := tx.LockStats(ctx, userID); err != nil {
			return err
		}
		return tx.Reset(ctx, userID)
	})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	empty := dto.EmptyProgress()
	return &empty, nil
}

// activity is the outcome of crediting one lesson or quiz.
type activity struct {
	points int
	bonus  int
	agg    repository.Aggregates
	added  []string
	events []events.Event
}

// applyActivity credits points then recomputes streak, level and badges in
// that order and saves the stats row. The streak bonus is reported apart
// from the base points.
func (s *ProgressService) applyActivity(ctx context.Context, tx *repository.ProgressRepository, stats *model.UserStats, points int, now time.Time) (activity, error) {
	oldLevel := stats.Level
	stats.TotalPoints += points

	streak, bonus := ApplyStreak(StreakState{
		Current:      stats.CurrentStreak,
		Longest:      stats.LongestStreak,
		LastActivity: stats.LastActivityDate,
	}, now)
	stats.CurrentStreak = streak.Current
	stats.LongestStreak = streak.Longest
	stats.LastActivityDate = streak.LastActivity
	stats.TotalPoints += bonus

	stats.Level = LevelFor(stats.TotalPoints)

	agg, err := tx.Aggregates(ctx, stats.UserID)
	if err != nil {
		return activity{}, err
	}

	badges, added := EvaluateBadges(stats.Badges, agg, stats.CurrentStreak, stats.PerfectQuizStreak)
	stats.Badges = datatypes.JSONSlice[string](badges)

	if err := tx.SaveStats(ctx, stats); err != nil {
		return activity{}, err
	}

	var evs []events.Event
	for _, badge := range added {
		evs = append(evs, events.Event{Type: events.TypeBadgeEarned, UserID: stats.UserID, Badge: badge, OccurredAt: now})
	}
	if stats.Level > oldLevel {
		evs = append(evs, events.Event{Type: events.TypeLevelUp, UserID: stats.UserID, Level: stats.Level, OldLevel: oldLevel, OccurredAt: now})
	}

	return activity{points: points, bonus: bonus, agg: agg, added: added, events: evs}, nil
}

// view loads the completion and quiz history of the stats owner through
// repo and assembles the response.
func (s *ProgressService) view(ctx context.Context, repo *repository.ProgressRepository, stats *model.UserStats, agg repository.Aggregates) (dto.ProgressResponse, error) {
	completions, err := repo.ListCompletions(ctx, stats.UserID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	quizzes, err := repo.ListQuizResults(ctx, stats.UserID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	return toProgressResponse(stats, agg, completions, quizzes), nil
}

// publish runs after commit. Failures are logged and never reach the caller.
func (s *ProgressService) publish(ctx context.Context, evs []events.Event) {
	for _, ev := range evs {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			logger.WarnWithContext(ctx, "Failed to publish progress event").
				String("event_type", ev.Type).
				Uint("user_id", ev.UserID).
				Err(err).
				Log()
		}
	}
}

func toProgressResponse(stats *model.UserStats, agg repository.Aggregates, completions []model.LessonCompletion, quizzes []model.QuizResult) dto.ProgressResponse {
	badges := []string(stats.Badges)
	if badges == nil {
		badges = []string{}
	}

	lessons := make([]dto.LessonCompletionResponse, 0, len(completions))
	for _, c := range completions {
		lessons = append(lessons, dto.LessonCompletionResponse{
			TopicID:     c.TopicID,
			LessonID:    c.LessonID,
			CompletedAt: c.CompletedAt.UTC(),
		})
	}

	history := make([]dto.QuizHistoryResponse, 0, len(quizzes))
	for _, q := range quizzes {
		history = append(history, dto.QuizHistoryResponse{
			TopicID:     q.TopicID,
			Score:       dto.QuizScore{Correct: q.Correct, Total: q.Total},
			Percentage:  q.Percentage,
			CompletedAt: q.CompletedAt.UTC(),
		})
	}

	return dto.ProgressResponse{
		CompletedLessons:  lessons,
		QuizResults:       history,
		TotalPoints:       stats.TotalPoints,
		Level:             stats.Level,
		Badges:            badges,
		CurrentStreak:     stats.CurrentStreak,
		LongestStreak:     stats.LongestStreak,
		LastActivityDate:  stats.LastActivityDate,
		PerfectQuizStreak: stats.PerfectQuizStreak,
		PerfectQuizzes:    int(agg.PerfectQuizzes),
	}
}
