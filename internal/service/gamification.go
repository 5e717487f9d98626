package service

import (
	"math"
	"slices"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/repository"
)

// StreakState is the streak part of a user's stats.
type StreakState struct {
	Current      int
	Longest      int
	LastActivity *string
}

// ApplyStreak advances the daily streak for activity on today (a UTC
// calendar date) and returns the new state with the bonus points earned.
func ApplyStreak(s StreakState, today time.Time) (StreakState, int) {
	todayStr := today.UTC().Format(constants.DateLayout)

	if s.LastActivity != nil && *s.LastActivity == todayStr {
		return s, 0
	}

	bonus := 0
	switch {
	case s.LastActivity == nil:
		s.Current = 1
	default:
		last, err := time.Parse(constants.DateLayout, *s.LastActivity)
		if err != nil {
			s.Current = 1
			break
		}
		todayDate, _ := time.Parse(constants.DateLayout, todayStr)
		days := int(todayDate.Sub(last).Hours() / 24)

		switch {
		case days == 1:
			s.Current++
			bonus = min(s.Current*constants.StreakBonusPerDay, constants.MaxStreakBonus)
		case days > 1:
			s.Current = 1
		default:
			// Last activity lies in the future (clock skew); keep the
			// streak and move the date back to today.
			if s.Current == 0 {
				s.Current = 1
			}
		}
	}

	s.Longest = max(s.Longest, s.Current)
	s.LastActivity = &todayStr
	return s, bonus
}

// LevelFor derives the level from total points alone.
func LevelFor(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/constants.PointsPerLevel + 1
}

// QuizPoints awards one point per ten percent, rounded half away from zero.
func QuizPoints(percentage int) int {
	return int(math.Round(float64(percentage) / 10))
}

// GradeFor maps a quiz percentage to a performance label.
func GradeFor(percentage int) string {
	switch {
	case percentage >= 90:
		return constants.GradeExcellent
	case percentage >= 70:
		return constants.GradeGood
	case percentage >= 50:
		return constants.GradeAverage
	default:
		return constants.GradeNeedsImprovement
	}
}

// EvaluateBadges returns existing badges plus every newly qualifying one,
// and separately the badges added by this evaluation. Badges already held
// are never removed.
func EvaluateBadges(existing []string, agg repository.Aggregates, currentStreak, perfectQuizStreak int) (all []string, added []string) {
	rules := []struct {
		badge string
		met   bool
	}{
		{constants.BadgePerfectScore, agg.PerfectQuizzes >= 1},
		{constants.BadgeBeginner, agg.CompletedLessons >= constants.BeginnerLessons},
		{constants.BadgeBookworm, agg.CompletedLessons >= constants.BookwormLessons},
		{constants.BadgeWeekWarrior, currentStreak >= constants.WeekWarriorDays},
		{constants.BadgeQuizMaster, agg.PerfectQuizzes >= constants.QuizMasterPerfectQuizzes},
		{constants.BadgePerfectionist, perfectQuizStreak >= constants.PerfectionistStreak},
		{constants.BadgeAllTopics, agg.TotalCategories > 0 && agg.CompletedCategories >= agg.TotalCategories},
	}

	all = append(make([]string, 0, len(existing)+len(rules)), existing...)
	added = []string{}
	for _, rule := range rules {
		if rule.met && !slices.Contains(all, rule.badge) {
			all = append(all, rule.badge)
			added = append(added, rule.badge)
		}
	}
	return all, added
}
