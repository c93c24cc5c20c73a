// Package models defines the persisted records of the logo gallery.
package models

import (
	"time"

	"github.com/ironsheep/logo-gallery/internal/features"
)

// Logo is one accepted upload. ContentHash and Features are written once at
// upload time and never updated; (OwnerID, ContentHash) is unique.
type Logo struct {
	ID          string   `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string   `json:"ownerId" bson:"ownerId" gorm:"not null;index;uniqueIndex:idx_logos_owner_content"`
	Title       string   `json:"title" bson:"title" gorm:"not null"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Tags        []string `json:"tags" bson:"tags" gorm:"serializer:json;type:jsonb"`
	Filename    string   `json:"filename" bson:"filename"`
	MimeType    string   `json:"mimeType" bson:"mimeType" gorm:"not null"`
	SizeBytes   int64    `json:"sizeBytes" bson:"sizeBytes"`

	// ContentHash is the hex SHA-256 of the uploaded bytes.
	ContentHash string `json:"contentHash" bson:"contentHash" gorm:"not null;size:64;index;uniqueIndex:idx_logos_owner_content"`

	Features features.ImageFeatures `json:"features" bson:"features" gorm:"serializer:json;type:jsonb"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// TableName pins the gorm table name.
func (Logo) TableName() string {
	return "logos"
}
