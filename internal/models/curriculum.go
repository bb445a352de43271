package models

import "time"

// CurriculumLevel is one rung of the placement ladder. Levels are ordered by
// program rank, then subprogram rank, then level number; the rank columns make
// the ordering explicit instead of relying on name collation.
type CurriculumLevel struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Program        string    `gorm:"size:64;not null" json:"program"`
	Subprogram     string    `gorm:"size:64;not null" json:"subprogram"`
	LevelNumber    int       `gorm:"not null" json:"level_number"`
	ProgramRank    int       `gorm:"not null" json:"program_rank"`
	SubprogramRank int       `gorm:"not null" json:"subprogram_rank"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PlacementRule maps a student's school grade and class-rank band to the
// curriculum level a session starts from.
type PlacementRule struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SchoolGrade int             `gorm:"not null;index" json:"school_grade"`
	RankMin     int             `gorm:"not null" json:"rank_min"`
	RankMax     int             `gorm:"not null" json:"rank_max"`
	LevelID     uint            `gorm:"not null" json:"level_id"`
	Level       CurriculumLevel `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"level"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Matches reports whether the rule covers the given grade and class rank.
func (r PlacementRule) Matches(grade, rank int) bool {
	return r.SchoolGrade == grade && rank >= r.RankMin && rank <= r.RankMax
}
