package models

// User describes a platform member. Username is derived at registration and may be
// changed later through the profile update flow.
type User struct {
	BaseModel

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	FullName     string `gorm:"not null" json:"full_name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Password     string `gorm:"not null" json:"-"`
	PhotoProfile string `json:"photo_profile"`
	Bio          string `json:"bio"`

	Threads   []Thread    `gorm:"foreignKey:CreatedBy" json:"-"`
	Followers []Following `gorm:"foreignKey:FollowingID" json:"-"`
	Following []Following `gorm:"foreignKey:FollowerID" json:"-"`
}
