package models

import (
	"time"
)

// Image belongs to exactly one post and stores the original upload plus a
// derived JPEG thumbnail, both as paths relative to the media root.
type Image struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostID        uint      `gorm:"not null;index" json:"post_id"`
	ImagePath     string    `gorm:"not null" json:"image_path"`
	ThumbnailPath string    `json:"thumbnail_path"`
	CreatedAt     time.Time `json:"created_at"`
}
