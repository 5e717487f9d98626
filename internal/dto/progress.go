package dto

import "time"

type CompleteLessonRequest struct {
	TopicID  uint `json:"topicId" validate:"required,gte=1"`
	LessonID uint `json:"lessonId" validate:"required,gte=1"`
}

type QuizScore struct {
	Correct int `json:"correct" validate:"gte=0,ltefield=Total"`
	Total   int `json:"total" validate:"required,gte=1"`
}

type SaveQuizResultRequest struct {
	TopicID    uint       `json:"topicId" validate:"required,gte=1"`
	Score      *QuizScore `json:"score" validate:"required"`
	Percentage *int       `json:"percentage" validate:"required,gte=0,lte=100"`
}

// LessonCompletionResponse is one entry of the completion history.
type LessonCompletionResponse struct {
	TopicID     uint      `json:"topicId"`
	LessonID    uint      `json:"lessonId"`
	CompletedAt time.Time `json:"completedAt"`
}

// QuizHistoryResponse is one stored quiz submission.
type QuizHistoryResponse struct {
	TopicID     uint      `json:"topicId"`
	Score       QuizScore `json:"score"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// ProgressResponse is the aggregate view of a user's gamification state
// together with the completion and quiz history behind it.
type ProgressResponse struct {
	CompletedLessons  []LessonCompletionResponse `json:"completedLessons"`
	QuizResults       []QuizHistoryResponse      `json:"quizResults"`
	TotalPoints       int                        `json:"totalPoints"`
	Level             int                        `json:"level"`
	Badges            []string                   `json:"badges"`
	CurrentStreak     int                        `json:"currentStreak"`
	LongestStreak     int                        `json:"longestStreak"`
	LastActivityDate  *string                    `json:"lastActivityDate"`
	PerfectQuizStreak int                        `json:"perfectQuizStreak"`
	PerfectQuizzes    int                        `json:"perfectQuizzes"`
}

// QuizResultResponse adds per-submission feedback to the aggregate.
// PointsEarned is the quiz score alone; StreakBonus is credited on top.
type QuizResultResponse struct {
	Progress     ProgressResponse `json:"progress"`
	PointsEarned int              `json:"pointsEarned"`
	StreakBonus  int              `json:"streakBonus"`
	Performance  string           `json:"performance"`
	NewBadges    []string         `json:"newBadges"`
}

type LessonResultResponse struct {
	Progress         ProgressResponse `json:"progress"`
	AlreadyCompleted bool             `json:"alreadyCompleted"`
	PointsEarned     int              `json:"pointsEarned"`
	StreakBonus      int              `json:"streakBonus"`
	NewBadges        []string         `json:"newBadges"`
}

// EmptyProgress is the default shown to anonymous callers and after reset.
func EmptyProgress() ProgressResponse {
	return ProgressResponse{
		CompletedLessons: []LessonCompletionResponse{},
		QuizResults:      []QuizHistoryResponse{},
		Level:            1,
		Badges:           []string{},
	}
}
