package models

import "time"

// ContentStatus is the writing-side lifecycle state.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusReview    ContentStatus = "review"
	ContentStatusReady     ContentStatus = "ready"
	ContentStatusPublished ContentStatus = "published"
)

// Valid reports whether s is one of the known content statuses.
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusReview, ContentStatusReady, ContentStatusPublished:
		return true
	}
	return false
}

// ContentFormat is the closed set of article formats.
type ContentFormat string

const (
	FormatBlog       ContentFormat = "blog"
	FormatCommercial ContentFormat = "commercial"
	FormatFAQ        ContentFormat = "faq"
)

// Valid reports whether f is one of the known formats.
func (f ContentFormat) Valid() bool {
	switch f {
	case FormatBlog, FormatCommercial, FormatFAQ:
		return true
	}
	return false
}

// ContentItem is the authored or generated artifact (outline + body) tied to
// a backlog idea. BacklogIdeaID is a soft reference: the idea may have been
// deleted, readers must tolerate the dangling link.
type ContentItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ProjectID    string `json:"projectId" gorm:"index:idx_content_items_scope;not null"`
	HypothesisID string `json:"hypothesisId" gorm:"index:idx_content_items_scope;not null"`
	UserID       string `json:"userId"`

	BacklogIdeaID string `json:"backlogIdeaId,omitempty" gorm:"index"`

	Title    string        `json:"title" gorm:"not null"`
	Category IdeaCategory  `json:"category" gorm:"type:varchar(16);index"`
	Format   ContentFormat `json:"format" gorm:"type:varchar(16)"`

	Outline  string `json:"outline,omitempty" gorm:"type:text"`
	Content  string `json:"content,omitempty" gorm:"type:text"`
	ImageURL string `json:"imageUrl,omitempty"`

	Status      ContentStatus `json:"status" gorm:"type:varchar(16);index;default:'draft'"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	PublishDate *time.Time    `json:"publishDate,omitempty" gorm:"index"`
}

// TableName sets the explicit table name.
func (ContentItem) TableName() string {
	return "content_items"
}
