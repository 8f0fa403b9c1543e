package models

import "time"

// SystemSetting is one admin-tunable knob, stored as a string and parsed
// where it is read (the registration fee lives here). Settings are upserted
// in place, never soft-deleted. The column is backticked in queries because
// `key` is a reserved word in MySQL.
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SystemSetting) TableName() string { return "system_settings" }
