package models

import (
	"time"
)

// Post represents user-created content with a caption, hashtags and images.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	Caption  string `gorm:"type:text" json:"caption"`
	// LikesCount is not persisted; computed at query time by the feed selector
	LikesCount int `gorm:"->" json:"likes_count"`
	// HasLiked indicates whether the requesting viewer liked this post (computed)
	HasLiked  bool      `gorm:"->" json:"has_liked"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tags   []Tag   `gorm:"many2many:post_tags" json:"tags"`
	Images []Image `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"images"`
	Likes  []Like  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}
