package model

import "time"

// AISession is the single persisted row of the AI-service session.
type AISession struct {
	ID                  uint       `gorm:"primaryKey"`
	AccessToken         string     `gorm:"type:text"`
	RefreshToken        string     `gorm:"type:text"`
	IssuedAt            time.Time
	ExpiresAt           time.Time
	Health              string     `gorm:"size:16;not null"`
	ConsecutiveFailures int        `gorm:"not null;default:0"`
	LastRefreshAt       *time.Time
	LastError           string     `gorm:"type:text"`
	UpdatedAt           time.Time
}

func (AISession) TableName() string {
	return "ai_sessions"
}
