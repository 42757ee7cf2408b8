package models

import (
	"time"
)

// Source represents a monitored content origin (one website)
type Source struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PostItem is a scraped (title, link) pair before persistence
type PostItem struct {
	Title string
	Link  string
}
