package models

// Thread is a top-level post. Image holds a path relative to the uploads root.
type Thread struct {
	BaseModel

	Content string  `gorm:"type:text;not null" json:"content"`
	Image   *string `json:"image"`

	Replies []Reply `gorm:"foreignKey:ThreadID" json:"-"`
	Likes   []Like  `gorm:"foreignKey:ThreadID" json:"-"`
}
