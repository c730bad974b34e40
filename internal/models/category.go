package models

import "time"

// Category is a user-defined label assignable to applications.
type Category struct {
	ID           string    `gorm:"primaryKey;size:26" json:"id"`
	Name         string    `gorm:"not null;uniqueIndex" json:"name"`
	Color        string    `gorm:"not null" json:"color"`
	IsProductive bool      `gorm:"not null;default:false" json:"is_productive"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"-"`
}

// AppCategory maps an application name to at most one category.
type AppCategory struct {
	Application string    `gorm:"primaryKey" json:"application"`
	CategoryID  string    `gorm:"not null;size:26;index" json:"category_id"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// CategoryUpdate carries the fields of an update; nil fields are left as is.
type CategoryUpdate struct {
	Name         *string `json:"name,omitempty"`
	Color        *string `json:"color,omitempty"`
	IsProductive *bool   `json:"is_productive,omitempty"`
}

// Setting is a key/value row used for user preferences such as the daily goal.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}
