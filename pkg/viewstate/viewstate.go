// Package viewstate maintains a client-side projection of the feed from the
// realtime event stream. It mirrors what a connected UI keeps in memory: the
// thread list, per-thread reply lists, and the viewer's social sets. Applying
// an event patches that projection in place without a re-fetch, and reports
// which views cannot be patched and must be re-fetched instead.
package viewstate

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one frame from the realtime stream.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Author is the denormalised writer of a thread or reply.
type Author struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	PhotoProfile string `json:"photo_profile"`
}

// Thread is a feed row as rendered by the server.
type Thread struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Image        *string   `json:"image"`
	CreatedAt    time.Time `json:"created_at"`
	User         Author    `json:"user"`
	TotalReplies int64     `json:"total_replies"`
	TotalLikes   int64     `json:"total_likes"`
	IsLiked      bool      `json:"is_liked"`
}

// Reply is one row of a thread's reply list.
type Reply struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Content   string    `json:"content"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	User      Author    `json:"user"`
}

// Profile is a directory entry or profile view.
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	PhotoProfile   string `json:"photo_profile"`
	Bio            string `json:"bio"`
	TotalFollowers int64  `json:"total_followers"`
	TotalFollowing int64  `json:"total_following"`
	IsFollowed     bool   `json:"is_followed"`
}

// Effects reports what an applied event could not patch locally. The UI acts on
// these after the state transition.
type Effects struct {
	// Redirect is set when the open detail view was deleted under the viewer.
	Redirect bool
	// RefetchCounts is set when follow aggregates changed and cached counts are
	// stale.
	RefetchCounts bool
	// RefetchLists is set when denormalised profile fields (name, photo) changed
	// and every list embedding them is stale.
	RefetchLists bool
}

// State is the viewer's local projection. Zero value is ready to use.
type State struct {
	// ViewerID is the acting identity; per-viewer flags such as IsLiked are only
	// patched when the event's actor matches.
	ViewerID string

	Threads []Thread
	// DetailID is the thread currently open in a detail view, empty when none.
	DetailID string
	Detail   *Thread

	Replies map[string][]Reply

	Suggested []Profile
	Following []Profile

	Profiles map[string]Profile
}

// NewState builds a projection for the given viewer.
func NewState(viewerID string) *State {
	return &State{
		ViewerID: viewerID,
		Replies:  make(map[string][]Reply),
		Profiles: make(map[string]Profile),
	}
}

// Apply patches the projection with one event. Transitions are idempotent:
// insertions are keyed by id (replace-or-insert, never blind append) and count
// fields are replaced, never incremented, so a duplicated frame leaves the
// state unchanged.
func (s *State) Apply(e Event) (Effects, error) {
	switch e.Name {
	case "thread.created":
		return s.applyThreadCreated(e.Data)
	case "thread.deleted":
		return s.applyThreadDeleted(e.Data)
	case "reply.created":
		return s.applyReplyCreated(e.Data)
	case "reply.deleted":
		return s.applyReplyDeleted(e.Data)
	case "like.toggled":
		return s.applyLikeToggled(e.Data)
	case "follow.toggled":
		return s.applyFollowToggled(e.Data)
	case "user.updated":
		return s.applyUserUpdated(e.Data)
	default:
		// Unknown kinds are skipped so old clients survive new server events.
		return Effects{}, nil
	}
}

func (s *State) applyThreadCreated(data json.RawMessage) (Effects, error) {
	var thread Thread
	if err := json.Unmarshal(data, &thread); err != nil {
		return Effects{}, fmt.Errorf("viewstate: thread.created: %w", err)
	}

	for i := range s.Threads {
		if s.Threads[i].ID == thread.ID {
			s.Threads[i] = thread
			return Effects{}, nil
		}
	}
	// New threads are always treated as most-recent.
	s.Threads = append([]Thread{thread}, s.Threads...)
	return Effects{}, nil
}

func (s *State) applyThreadDeleted(data json.RawMessage) (Effects, error) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Effects{}, fmt.Errorf("viewstate: thread.deleted: %w", err)
	}

	kept := s.Threads[:0]
	for _, thread := range s.Threads {
		if thread.ID != payload.ID {
			kept = append(kept, thread)
		}
	}
	s.Threads = kept
	if s.Replies != nil {
		delete(s.Replies, payload.ID)
	}

	var effects Effects
	if s.DetailID == payload.ID {
		s.DetailID = ""
		s.Detail = nil
		effects.Redirect = true
	}
	return effects, nil
}

func (s *State) applyReplyCreated(data json.RawMessage) (Effects, error) {
	var payload struct {
		Reply        Reply  `json:"reply"`
		ThreadID     string `json:"thread_id"`
		TotalReplies int64  `json:"total_replies"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Effects{}, fmt.Errorf("viewstate: reply.created: %w", err)
	}

	if s.Replies == nil {
		s.Replies = make(map[string][]Reply)
	}
	rows := s.Replies[payload.ThreadID]
	replaced := false
	for i := range rows {
		if rows[i].ID == payload.Reply.ID {
			rows[i] = payload.Reply
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, payload.Reply)
	}
	s.Replies[payload.ThreadID] = rows

	s.setReplyCount(payload.ThreadID, payload.TotalReplies)
	return Effects{}, nil
}

func (s *State) applyReplyDeleted(data json.RawMessage) (Effects, error) {
	var payload struct {
		ID           string `json:"id"`
		ThreadID     string `json:"thread_id"`
		TotalReplies int64  `json:"total_replies"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Effects{}, fmt.Errorf("viewstate: reply.deleted: %w", err)
	}

	rows := s.Replies[payload.ThreadID]
	kept := rows[:0]
	for _, row := range rows {
		if row.ID != payload.ID {
			kept = append(kept, row)
		}
	}
	if s.Replies != nil {
		s.Replies[payload.ThreadID] = kept
	}

	s.setReplyCount(payload.ThreadID, payload.TotalReplies)
	return Effects{}, nil
}

func (s *State) applyLikeToggled(data json.RawMessage) (Effects, error) {
	var payload struct {
		ThreadID string `json:"thread_id"`
		UserID   string `json:"user_id"`
		Liked    bool   `json:"liked"`
		Count    int64  `json:"count"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Effects{}, fmt.Errorf("viewstate: like.toggled: %w", err)
	}

	mine := payload.UserID == s.ViewerID
	patch := func(thread *Thread) {
		thread.TotalLikes = payload.Count
		if mine {
			thread.IsLiked = payload.Liked
		}
	}

	for i := range s.Threads {
		if s.Threads[i].ID == payload.ThreadID {
			patch(&s.Threads[i])
		}
	}
	if s.Detail != nil && s.Detail.ID == payload.ThreadID {
		patch(s.Detail)
	}
	return Effects{}, nil
}

func (s *State) applyFollowToggled(data json.RawMessage) (Effects, error) {
	var payload struct {
		FollowerID  string   `json:"follower_id"`
		FollowingID string   `json:"following_id"`
		Following   bool     `json:"following"`
		User        *Profile `json:"user"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Effects{}, fmt.Errorf("viewstate: follow.toggled: %w", err)
	}

	// Other viewers' follow edges do not change this viewer's sets, but the
	// aggregate counts they render did change.
	if payload.FollowerID != s.ViewerID {
		return Effects{RefetchCounts: true}, nil
	}

	if payload.Following {
		s.Suggested = removeProfile(s.Suggested, payload.FollowingID)
		s.Following = upsertProfile(s.Following, payload.FollowingID, payload.User)
	} else {
		s.Following = removeProfile(s.Following, payload.FollowingID)
		if payload.User != nil {
			s.Suggested = upsertProfile(s.Suggested, payload.FollowingID, payload.User)
		}
	}
	return Effects{RefetchCounts: true}, nil
}

func (s *State) applyUserUpdated(data json.RawMessage) (Effects, error) {
	var payload struct {
		User Profile `json:"user"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Effects{}, fmt.Errorf("viewstate: user.updated: %w", err)
	}

	if s.Profiles == nil {
		s.Profiles = make(map[string]Profile)
	}
	s.Profiles[payload.User.ID] = payload.User

	// Threads and replies denormalise author fields; patching every embedded
	// copy is what the refetch hint is for.
	return Effects{RefetchLists: true}, nil
}

func (s *State) setReplyCount(threadID string, total int64) {
	for i := range s.Threads {
		if s.Threads[i].ID == threadID {
			s.Threads[i].TotalReplies = total
		}
	}
	if s.Detail != nil && s.Detail.ID == threadID {
		s.Detail.TotalReplies = total
	}
}

func removeProfile(profiles []Profile, id string) []Profile {
	kept := profiles[:0]
	for _, p := range profiles {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return kept
}

func upsertProfile(profiles []Profile, id string, user *Profile) []Profile {
	if user == nil {
		return profiles
	}
	for i := range profiles {
		if profiles[i].ID == id {
			profiles[i] = *user
			return profiles
		}
	}
	return append(profiles, *user)
}
