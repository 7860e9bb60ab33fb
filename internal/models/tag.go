package models

import (
	"strings"

	"gorm.io/gorm"
)

// Tag categorizes posts. Names are normalized to lowercase before every
// write, so the unique index is effectively case-insensitive.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:30" json:"name"`

	Posts []Post `gorm:"many2many:post_tags" json:"-"`
}

// NormalizeTagName trims surrounding whitespace and lowercases a tag name.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BeforeSave normalizes the name so the DB never sees a mixed-case tag.
func (t *Tag) BeforeSave(_ *gorm.DB) error {
	t.Name = NormalizeTagName(t.Name)
	return nil
}
