package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserStats holds the gamification counters of one user.
type UserStats struct {
	ID                uint                        `gorm:"primaryKey"`
	UserID            uint                        `gorm:"column:user_id;not null;uniqueIndex:idx_user_stats_user_id"`
	TotalPoints       int                         `gorm:"column:total_points;not null;default:0"`
	Level             int                         `gorm:"column:level;not null;default:1"`
	Badges            datatypes.JSONSlice[string] `gorm:"column:badges"`
	CurrentStreak     int                         `gorm:"column:current_streak;not null;default:0"`
	LongestStreak     int                         `gorm:"column:longest_streak;not null;default:0"`
	LastActivityDate  *string                     `gorm:"column:last_activity_date;size:10"`
	PerfectQuizStreak int                         `gorm:"column:perfect_quiz_streak;not null;default:0"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// LessonCompletion records a lesson finished by a user; each lesson counts once.
type LessonCompletion struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"column:user_id;not null;uniqueIndex:idx_user_progress_unique,priority:1"`
	TopicID     uint      `gorm:"column:topic_id;not null;uniqueIndex:idx_user_progress_unique,priority:2"`
	LessonID    uint      `gorm:"column:lesson_id;not null;uniqueIndex:idx_user_progress_unique,priority:3"`
	CompletedAt time.Time `gorm:"column:completed_at;not null"`
}

func (LessonCompletion) TableName() string {
	return "user_progress"
}

type QuizResult struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"column:user_id;not null;index:idx_quiz_results_user_id"`
	TopicID     uint      `gorm:"column:topic_id;not null"`
	Correct     int       `gorm:"column:correct;not null"`
	Total       int       `gorm:"column:total;not null"`
	Percentage  int       `gorm:"column:percentage;not null"`
	CompletedAt time.Time `gorm:"column:completed_at;not null"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// Topic is a catalogue entry; only its category matters to the engine.
type Topic struct {
	ID       uint   `gorm:"primaryKey"`
	Title    string `gorm:"column:title;size:200;not null"`
	Category string `gorm:"column:category;size:100;not null;index:idx_topics_category"`
}

func (Topic) TableName() string {
	return "topics"
}
