package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type DocumentModel struct {
	ID           string `gorm:"primaryKey"`
	Position     int64  `gorm:"not null;index"`
	Title        string `gorm:"not null"`
	Content      string `gorm:"type:text"`
	Summary      string `gorm:"type:text"`
	Tags         datatypes.JSONSlice[string]
	Author       string
	AuthorID     string `gorm:"index"`
	Department   string `gorm:"index"`
	Visibility   string `gorm:"not null"`
	Rating       float64
	TotalRatings int
	Views        int
	FileType     string
	FileName     string
	FileSize     int64
	Comments     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null;index"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

type UserModel struct {
	ID          string `gorm:"primaryKey"`
	Username    string `gorm:"index"`
	Name        string `gorm:"not null"`
	Email       string
	Avatar      string
	Role        string
	Department  string
	Permissions datatypes.JSONSlice[string]
	Badges      datatypes.JSON `gorm:"type:jsonb"`
}

type RatingModel struct {
	DocumentID string  `gorm:"primaryKey"`
	UserID     string  `gorm:"primaryKey"`
	Score      float64 `gorm:"not null"`
	UpdatedAt  time.Time
}

type ActivityModel struct {
	ID        string `gorm:"primaryKey"`
	Seq       int64  `gorm:"not null;index"`
	UserID    string
	UserName  string
	Action    string
	Target    string
	TargetID  string
	Type      string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`
}
