package constants

// Point awards
const (
	LessonCompletionPoints = 10
	PointsPerLevel         = 100
	PerfectScore           = 100
	StreakBonusPerDay      = 2
	MaxStreakBonus         = 20
)

// Badge thresholds
const (
	BeginnerLessons          = 3
	BookwormLessons          = 20
	WeekWarriorDays          = 7
	QuizMasterPerfectQuizzes = 10
	PerfectionistStreak      = 5
)

// Badge identifiers
const (
	BadgePerfectScore  = "perfect-score"
	BadgeBeginner      = "beginner"
	BadgeBookworm      = "bookworm"
	BadgeWeekWarrior   = "week-warrior"
	BadgeQuizMaster    = "quiz-master"
	BadgePerfectionist = "perfectionist"
	BadgeAllTopics     = "all-topics"
)

// Quiz performance grades
const (
	GradeExcellent        = "excellent"
	GradeGood             = "good"
	GradeAverage          = "average"
	GradeNeedsImprovement = "needs-improvement"
)

// DateLayout is the calendar-day format of last_activity_date.
const DateLayout = "2006-01-02"
