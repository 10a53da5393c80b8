package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link is a shortened URL. Bio links share the slug namespace: the row
// with IsBioLink points at the owner's public bio page.
type Link struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User           User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Slug           string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Title          string    `gorm:"size:200" json:"title"`
	DestinationURL string    `gorm:"type:text;not null" json:"destination_url"`
	IsBioLink      bool      `gorm:"not null;default:false;index" json:"is_bio_link"`
	Clicks         int64     `gorm:"not null;default:0" json:"clicks"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Link) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

// LinkClickDaily aggregates clicks per link per UTC day.
type LinkClickDaily struct {
	LinkID uuid.UUID `gorm:"type:uuid;primaryKey" json:"link_id"`
	Link   Link      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Day    time.Time `gorm:"type:date;primaryKey" json:"day"`
	Count  int64     `gorm:"not null;default:0" json:"count"`
}
