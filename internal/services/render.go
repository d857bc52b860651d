package services

import "time"

// Author is the denormalised slice of a user embedded in rendered threads and
// replies.
type Author struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	PhotoProfile string `json:"photo_profile"`
}

// RenderedThread is a thread as served to clients: author joined, counts computed,
// is_liked evaluated for the requesting viewer. Cached entries embed the viewer in
// their key, so a rendered thread is never shared across viewers.
type RenderedThread struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Image        *string   `json:"image"`
	CreatedAt    time.Time `json:"created_at"`
	User         Author    `json:"user"`
	TotalReplies int64     `json:"total_replies"`
	TotalLikes   int64     `json:"total_likes"`
	IsLiked      bool      `json:"is_liked"`
}

// RenderedReply is a reply with its author joined.
type RenderedReply struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Content   string    `json:"content"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	User      Author    `json:"user"`
}

// RenderedUser is a user profile annotated for the requesting viewer.
type RenderedUser struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	PhotoProfile   string    `json:"photo_profile"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	TotalFollowers int64     `json:"total_followers"`
	TotalFollowing int64     `json:"total_following"`
	IsFollowed     bool      `json:"is_followed"`
}

// threadRow is the flat scan target for rendered thread queries.
type threadRow struct {
	ID           string
	Content      string
	Image        *string
	CreatedAt    time.Time
	UserID       string
	Username     string
	FullName     string
	PhotoProfile string
	TotalReplies int64
	TotalLikes   int64
	IsLiked      bool
}

func (r threadRow) render() RenderedThread {
	return RenderedThread{
		ID:        r.ID,
		Content:   r.Content,
		Image:     r.Image,
		CreatedAt: r.CreatedAt,
		User: Author{
			ID:           r.UserID,
			Username:     r.Username,
			FullName:     r.FullName,
			PhotoProfile: r.PhotoProfile,
		},
		TotalReplies: r.TotalReplies,
		TotalLikes:   r.TotalLikes,
		IsLiked:      r.IsLiked,
	}
}

// replyRow is the flat scan target for rendered reply queries.
type replyRow struct {
	ID           string
	ThreadID     string
	Content      string
	Image        *string
	CreatedAt    time.Time
	UserID       string
	Username     string
	FullName     string
	PhotoProfile string
}

func (r replyRow) render() RenderedReply {
	return RenderedReply{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		Content:   r.Content,
		Image:     r.Image,
		CreatedAt: r.CreatedAt,
		User: Author{
			ID:           r.UserID,
			Username:     r.Username,
			FullName:     r.FullName,
			PhotoProfile: r.PhotoProfile,
		},
	}
}

// userRow is the flat scan target for rendered user queries.
type userRow struct {
	ID             string
	Username       string
	FullName       string
	Email          string
	PhotoProfile   string
	Bio            string
	CreatedAt      time.Time
	TotalFollowers int64
	TotalFollowing int64
	IsFollowed     bool
}

func (r userRow) render() RenderedUser {
	return RenderedUser{
		ID:             r.ID,
		Username:       r.Username,
		FullName:       r.FullName,
		Email:          r.Email,
		PhotoProfile:   r.PhotoProfile,
		Bio:            r.Bio,
		CreatedAt:      r.CreatedAt,
		TotalFollowers: r.TotalFollowers,
		TotalFollowing: r.TotalFollowing,
		IsFollowed:     r.IsFollowed,
	}
}
