package models

// Like is a join row between a user and a thread. The handler-level toggle keeps at
// most one row per (user_id, thread_id) pair; concurrent duplicate toggles are an
// accepted race, so no storage-level uniqueness constraint is declared.
type Like struct {
	BaseModel

	UserID   string `gorm:"type:uuid;index:idx_likes_user_thread" json:"user_id"`
	ThreadID string `gorm:"type:uuid;index:idx_likes_user_thread;index" json:"thread_id"`
}
