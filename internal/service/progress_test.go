package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/dto"
	"github.com/Payphone-Digital/learnpath/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgressAnonymous(t *testing.T) {
	svc := NewProgressService(nil, nil)

	got, err := svc.GetProgress(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, dto.EmptyProgress(), *got)
}

func TestGetProgressFreshUser(t *testing.T) {
	s := newProgressStack(t)

	got, err := s.svc.GetProgress(context.Background(), &s.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalPoints)
	assert.Equal(t, 1, got.Level)
	assert.Empty(t, got.Badges)
	assert.Nil(t, got.LastActivityDate)
}

func TestCompleteLessonIsIdempotent(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	first, err := s.svc.CompleteLesson(ctx, s.userID, 1, 1)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCompleted)
	assert.Equal(t, constants.LessonCompletionPoints, first.PointsEarned)
	assert.Equal(t, 10, first.Progress.TotalPoints)
	assert.Equal(t, 1, first.Progress.CurrentStreak)

	repeat, err := s.svc.CompleteLesson(ctx, s.userID, 1, 1)
	require.NoError(t, err)
	assert.True(t, repeat.AlreadyCompleted)
	assert.Equal(t, 0, repeat.PointsEarned)
	assert.Equal(t, 10, repeat.Progress.TotalPoints)
	assert.Len(t, repeat.Progress.CompletedLessons, 1)
}

func TestBeginnerAfterThreeDistinctLessons(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	for lesson := uint(1); lesson <= 2; lesson++ {
		resp, err := s.svc.CompleteLesson(ctx, s.userID, 1, lesson)
		require.NoError(t, err)
		assert.NotContains(t, resp.Progress.Badges, constants.BadgeBeginner)
	}

	// Repeating lesson 2 does not count towards the badge.
	resp, err := s.svc.CompleteLesson(ctx, s.userID, 1, 2)
	require.NoError(t, err)
	assert.NotContains(t, resp.Progress.Badges, constants.BadgeBeginner)

	resp, err = s.svc.CompleteLesson(ctx, s.userID, 1, 3)
	require.NoError(t, err)
	assert.Contains(t, resp.Progress.Badges, constants.BadgeBeginner)
	assert.Equal(t, []string{constants.BadgeBeginner}, resp.NewBadges)
	assert.Equal(t, 30, resp.Progress.TotalPoints)
	assert.Len(t, resp.Progress.CompletedLessons, 3)
}

func TestAllTopicsBadge(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	var resp *dto.LessonResultResponse
	var err error
	for topic := uint(1); topic <= 3; topic++ {
		resp, err = s.svc.CompleteLesson(ctx, s.userID, topic, 1)
		require.NoError(t, err)
	}
	assert.Contains(t, resp.Progress.Badges, constants.BadgeAllTopics)
}

func TestStreakAcrossDays(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	var resp *dto.LessonResultResponse
	var err error
	for day := 1; day <= 7; day++ {
		resp, err = s.svc.CompleteLesson(ctx, s.userID, 1, uint(day))
		require.NoError(t, err)
		assert.Equal(t, day, resp.Progress.CurrentStreak)
		s.clock.Advance(24 * time.Hour)
	}

	// 7 lessons plus bonuses 4+6+8+10+12+14.
	assert.Equal(t, constants.LessonCompletionPoints, resp.PointsEarned)
	assert.Equal(t, 14, resp.StreakBonus)
	assert.Equal(t, 124, resp.Progress.TotalPoints)
	assert.Equal(t, 2, resp.Progress.Level)
	assert.Contains(t, resp.Progress.Badges, constants.BadgeWeekWarrior)

	// Skip a day: the streak restarts but the longest is kept.
	s.clock.Advance(24 * time.Hour)
	resp, err = s.svc.CompleteLesson(ctx, s.userID, 1, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Progress.CurrentStreak)
	assert.Equal(t, 7, resp.Progress.LongestStreak)
	assert.Contains(t, resp.Progress.Badges, constants.BadgeWeekWarrior)
}

func TestGetProgressReturnsHistory(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	_, err := s.svc.CompleteLesson(ctx, s.userID, 1, 1)
	require.NoError(t, err)
	s.clock.Advance(time.Minute)
	_, err = s.svc.CompleteLesson(ctx, s.userID, 2, 4)
	require.NoError(t, err)
	_, err = s.svc.SaveQuizResult(ctx, s.userID, 2, dto.QuizScore{Correct: 3, Total: 4}, 75)
	require.NoError(t, err)

	got, err := s.svc.GetProgress(ctx, &s.userID)
	require.NoError(t, err)

	require.Len(t, got.CompletedLessons, 2)
	assert.Equal(t, uint(1), got.CompletedLessons[0].TopicID)
	assert.Equal(t, uint(1), got.CompletedLessons[0].LessonID)
	assert.True(t, newClock().now.Equal(got.CompletedLessons[0].CompletedAt))
	assert.Equal(t, uint(2), got.CompletedLessons[1].TopicID)
	assert.Equal(t, uint(4), got.CompletedLessons[1].LessonID)

	require.Len(t, got.QuizResults, 1)
	quiz := got.QuizResults[0]
	assert.Equal(t, uint(2), quiz.TopicID)
	assert.Equal(t, dto.QuizScore{Correct: 3, Total: 4}, quiz.Score)
	assert.Equal(t, 75, quiz.Percentage)
	assert.True(t, s.clock.now.Equal(quiz.CompletedAt))

	_, err = s.svc.Reset(ctx, s.userID)
	require.NoError(t, err)

	got, err = s.svc.GetProgress(ctx, &s.userID)
	require.NoError(t, err)
	assert.Empty(t, got.CompletedLessons)
	assert.Empty(t, got.QuizResults)
}

func TestQuizPointsExcludeStreakBonus(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	_, err := s.svc.CompleteLesson(ctx, s.userID, 1, 1)
	require.NoError(t, err)
	s.clock.Advance(24 * time.Hour)

	resp, err := s.svc.SaveQuizResult(ctx, s.userID, 1, dto.QuizScore{Correct: 1, Total: 2}, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.PointsEarned)
	assert.Equal(t, 4, resp.StreakBonus)
	assert.Equal(t, 2, resp.Progress.CurrentStreak)
	assert.Equal(t, 19, resp.Progress.TotalPoints)
	assert.Len(t, resp.Progress.QuizResults, 1)
}

func TestPerfectionistSurvivesBrokenStreak(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()
	perfect := dto.QuizScore{Correct: 5, Total: 5}

	for i := 1; i <= 5; i++ {
		resp, err := s.svc.SaveQuizResult(ctx, s.userID, 1, perfect, 100)
		require.NoError(t, err)
		assert.Equal(t, i, resp.Progress.PerfectQuizStreak)
		assert.Equal(t, 10, resp.PointsEarned)
		assert.Equal(t, constants.GradeExcellent, resp.Performance)
		if i < 5 {
			assert.NotContains(t, resp.Progress.Badges, constants.BadgePerfectionist)
		}
	}

	resp, err := s.svc.GetProgress(ctx, &s.userID)
	require.NoError(t, err)
	assert.Contains(t, resp.Badges, constants.BadgePerfectionist)
	assert.Contains(t, resp.Badges, constants.BadgePerfectScore)

	sixth, err := s.svc.SaveQuizResult(ctx, s.userID, 1, dto.QuizScore{Correct: 3, Total: 5}, 60)
	require.NoError(t, err)
	assert.Equal(t, 0, sixth.Progress.PerfectQuizStreak)
	assert.Equal(t, 6, sixth.PointsEarned)
	assert.Equal(t, constants.GradeAverage, sixth.Performance)
	assert.Contains(t, sixth.Progress.Badges, constants.BadgePerfectionist)
	assert.Equal(t, 56, sixth.Progress.TotalPoints)
}

func TestLevelUpPublishesEvents(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()
	perfect := dto.QuizScore{Correct: 4, Total: 4}

	for i := 0; i < 10; i++ {
		_, err := s.svc.SaveQuizResult(ctx, s.userID, 2, perfect, 100)
		require.NoError(t, err)
	}

	progress, err := s.svc.GetProgress(ctx, &s.userID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.TotalPoints)
	assert.Equal(t, 2, progress.Level)
	assert.Equal(t, 10, progress.PerfectQuizzes)

	var badges []string
	var levelUps []events.Event
	for _, ev := range s.recorder.Events() {
		switch ev.Type {
		case events.TypeBadgeEarned:
			badges = append(badges, ev.Badge)
		case events.TypeLevelUp:
			levelUps = append(levelUps, ev)
		}
		assert.Equal(t, s.userID, ev.UserID)
	}
	assert.Equal(t, []string{constants.BadgePerfectScore, constants.BadgePerfectionist, constants.BadgeQuizMaster}, badges)
	require.Len(t, levelUps, 1)
	assert.Equal(t, 2, levelUps[0].Level)
	assert.Equal(t, 1, levelUps[0].OldLevel)
}

func TestResetRestoresDefaults(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	for lesson := uint(1); lesson <= 3; lesson++ {
		_, err := s.svc.CompleteLesson(ctx, s.userID, 1, lesson)
		require.NoError(t, err)
	}
	_, err := s.svc.SaveQuizResult(ctx, s.userID, 1, dto.QuizScore{Correct: 2, Total: 2}, 100)
	require.NoError(t, err)

	reset, err := s.svc.Reset(ctx, s.userID)
	require.NoError(t, err)
	assert.Equal(t, dto.EmptyProgress(), *reset)

	got, err := s.svc.GetProgress(ctx, &s.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalPoints)
	assert.Equal(t, 1, got.Level)
	assert.Empty(t, got.Badges)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 0, got.LongestStreak)
	assert.Nil(t, got.LastActivityDate)
	assert.Empty(t, got.CompletedLessons)
	assert.Empty(t, got.QuizResults)
	assert.Equal(t, 0, got.PerfectQuizzes)

	// The same lesson counts again after a reset.
	again, err := s.svc.CompleteLesson(ctx, s.userID, 1, 1)
	require.NoError(t, err)
	assert.False(t, again.AlreadyCompleted)
}

func TestConcurrentCompletionsAreAllCredited(t *testing.T) {
	s := newProgressStack(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for lesson := uint(1); lesson <= 8; lesson++ {
		wg.Add(1)
		go func(lesson uint) {
			defer wg.Done()
			_, err := s.svc.CompleteLesson(ctx, s.userID, 1, lesson)
			errs <- err
		}(lesson)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.svc.GetProgress(ctx, &s.userID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.TotalPoints)
	assert.Len(t, got.CompletedLessons, 8)
}
