package models

import (
	"time"
)

// AppEvent is one row in the append-only usage/analytics log. No relations,
// no updates; dashboards aggregate over it offline.
type AppEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Name      string     `json:"name" gorm:"not null;size:100;index"`
	Props     string     `json:"props" gorm:"type:text"`
	Page      string     `json:"page" gorm:"size:255"`
	SessionID string     `json:"session_id" gorm:"size:100"`
	DeviceID  string     `json:"device_id" gorm:"size:100"`
	UserID    string     `json:"user_id" gorm:"size:36;index"`
	UA        string     `json:"ua" gorm:"size:500"`
	IP        string     `json:"ip" gorm:"size:64"`
	TS        *time.Time `json:"ts"`
}

func (AppEvent) TableName() string {
	return "app_events"
}
