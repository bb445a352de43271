package models

import "time"

// Exam is a placement test paper pitched at one curriculum level.
type Exam struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Title     string          `gorm:"size:255;not null" json:"title"`
	LevelID   uint            `gorm:"not null;index" json:"level_id"`
	Level     CurriculumLevel `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"level"`
	Questions []Question      `json:"questions"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TotalPoints sums the point weight of every question on the paper.
func (e Exam) TotalPoints() int {
	total := 0
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}
