package service

import (
	"testing"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/repository"
	"github.com/stretchr/testify/assert"
)

func date(s string) *string { return &s }

func TestApplyStreak(t *testing.T) {
	today := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name        string
		in          StreakState
		wantCurrent int
		wantLongest int
		wantBonus   int
	}{
		{"first activity", StreakState{}, 1, 1, 0},
		{"same day", StreakState{Current: 3, Longest: 5, LastActivity: date("2025-03-10")}, 3, 5, 0},
		{"consecutive day", StreakState{Current: 2, Longest: 2, LastActivity: date("2025-03-09")}, 3, 3, 6},
		{"bonus is capped", StreakState{Current: 14, Longest: 14, LastActivity: date("2025-03-09")}, 15, 15, constants.MaxStreakBonus},
		{"gap resets", StreakState{Current: 9, Longest: 9, LastActivity: date("2025-03-07")}, 1, 9, 0},
		{"future date keeps streak", StreakState{Current: 4, Longest: 4, LastActivity: date("2025-03-12")}, 4, 4, 0},
		{"unparseable date resets", StreakState{Current: 4, Longest: 6, LastActivity: date("garbage")}, 1, 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bonus := ApplyStreak(tt.in, today)
			assert.Equal(t, tt.wantCurrent, got.Current)
			assert.Equal(t, tt.wantLongest, got.Longest)
			assert.Equal(t, tt.wantBonus, bonus)
			if assert.NotNil(t, got.LastActivity) {
				assert.Equal(t, "2025-03-10", *got.LastActivity)
			}
		})
	}
}

func TestApplyStreakUsesUTCDate(t *testing.T) {
	// 23:30 on the 9th in UTC-5 is already the 10th in UTC.
	local := time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))

	got, bonus := ApplyStreak(StreakState{Current: 1, Longest: 1, LastActivity: date("2025-03-09")}, local)
	assert.Equal(t, 2, got.Current)
	assert.Equal(t, 4, bonus)
	assert.Equal(t, "2025-03-10", *got.LastActivity)
}

func TestLevelFor(t *testing.T) {
	for points, want := range map[int]int{0: 1, 99: 1, 100: 2, 199: 2, 250: 3, 1000: 11, -5: 1} {
		assert.Equal(t, want, LevelFor(points), "points=%d", points)
	}
}

func TestQuizPoints(t *testing.T) {
	for pct, want := range map[int]int{0: 0, 4: 0, 5: 1, 44: 4, 45: 5, 85: 9, 100: 10} {
		assert.Equal(t, want, QuizPoints(pct), "percentage=%d", pct)
	}
}

func TestGradeFor(t *testing.T) {
	assert.Equal(t, constants.GradeExcellent, GradeFor(90))
	assert.Equal(t, constants.GradeGood, GradeFor(89))
	assert.Equal(t, constants.GradeGood, GradeFor(70))
	assert.Equal(t, constants.GradeAverage, GradeFor(50))
	assert.Equal(t, constants.GradeNeedsImprovement, GradeFor(49))
}

func TestEvaluateBadges(t *testing.T) {
	t.Run("nothing earned yet", func(t *testing.T) {
		all, added := EvaluateBadges(nil, repository.Aggregates{CompletedLessons: 2, TotalCategories: 3}, 1, 0)
		assert.Empty(t, all)
		assert.Empty(t, added)
		assert.NotNil(t, added)
	})

	t.Run("thresholds", func(t *testing.T) {
		agg := repository.Aggregates{
			CompletedLessons:    20,
			PerfectQuizzes:      10,
			CompletedCategories: 3,
			TotalCategories:     3,
		}
		all, added := EvaluateBadges(nil, agg, 7, 5)
		assert.ElementsMatch(t, []string{
			constants.BadgePerfectScore,
			constants.BadgeBeginner,
			constants.BadgeBookworm,
			constants.BadgeWeekWarrior,
			constants.BadgeQuizMaster,
			constants.BadgePerfectionist,
			constants.BadgeAllTopics,
		}, all)
		assert.Equal(t, all, added)
	})

	t.Run("held badges are kept and not re-added", func(t *testing.T) {
		existing := []string{constants.BadgePerfectionist, constants.BadgeBeginner}
		all, added := EvaluateBadges(existing, repository.Aggregates{CompletedLessons: 3, PerfectQuizzes: 1}, 1, 0)
		assert.Equal(t, []string{constants.BadgePerfectionist, constants.BadgeBeginner, constants.BadgePerfectScore}, all)
		assert.Equal(t, []string{constants.BadgePerfectScore}, added)
	})

	t.Run("empty catalogue never grants all-topics", func(t *testing.T) {
		all, _ := EvaluateBadges(nil, repository.Aggregates{}, 0, 0)
		assert.NotContains(t, all, constants.BadgeAllTopics)
	})
}
