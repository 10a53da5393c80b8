package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BioLink is one entry of a user's link-in-bio page.
type BioLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_bio_links_order,priority:1" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Icon      string    `gorm:"size:30;not null;default:link" json:"icon"`
	SortOrder int       `gorm:"not null;default:0;index:idx_bio_links_order,priority:2" json:"sort_order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *BioLink) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID, err = uuid.NewV7()
	}
	return
}

// BioIcons is the fixed icon registry bio links may reference.
var BioIcons = []string{
	"link",
	"website",
	"instagram",
	"facebook",
	"twitter",
	"youtube",
	"tiktok",
	"linkedin",
	"github",
	"whatsapp",
	"telegram",
	"spotify",
	"email",
}

func IsBioIcon(key string) bool {
	for _, icon := range BioIcons {
		if icon == key {
			return true
		}
	}
	return false
}
