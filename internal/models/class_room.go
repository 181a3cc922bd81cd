package models

import (
	"fmt"
	"time"
)

const (
	MinGrade = 7
	MaxGrade = 9
)

// ClassRoom: kelas (7A, 8C, ...). Diisi sekali lewat seed, setelah itu statis.
type ClassRoom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Grade     int       `gorm:"not null;uniqueIndex:idx_class_rooms_grade_section" json:"grade"`
	Section   string    `gorm:"size:2;not null;uniqueIndex:idx_class_rooms_grade_section" json:"section"`
	CreatedAt time.Time `json:"created_at"`
}

func (c ClassRoom) Label() string {
	return fmt.Sprintf("%d%s", c.Grade, c.Section)
}
