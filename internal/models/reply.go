package models

// Reply is a comment attached to a thread.
type Reply struct {
	BaseModel

	UserID   string  `gorm:"type:uuid;index;not null" json:"user_id"`
	ThreadID string  `gorm:"type:uuid;index;not null" json:"thread_id"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	Image    *string `json:"image"`
}
