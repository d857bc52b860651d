package models

// Following is a follow edge: FollowerID follows FollowingID. Self-follows are
// rejected by the follow service before any write reaches this table.
type Following struct {
	BaseModel

	FollowerID  string `gorm:"type:uuid;index:idx_follow_edge" json:"follower_id"`
	FollowingID string `gorm:"type:uuid;index:idx_follow_edge;index" json:"following_id"`
}
