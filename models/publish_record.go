package models

import "time"

// PublishRecord records a WordPress post created by the publish adapter.
// Synced=false means the live post exists but the local status writes did
// not land; the reconciliation sweep re-drives those rows.
type PublishRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ContentItemID string `json:"contentItemId" gorm:"index;not null"`
	ProjectID     string `json:"projectId" gorm:"index:idx_publish_records_scope"`
	HypothesisID  string `json:"hypothesisId" gorm:"index:idx_publish_records_scope"`

	WordPressPostID  int64  `json:"wordPressPostId"`
	WordPressPostURL string `json:"wordPressPostUrl"`

	Synced      bool       `json:"synced" gorm:"index;default:false"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// TableName sets the explicit table name.
func (PublishRecord) TableName() string {
	return "publish_records"
}
