package cache

import (
	"fmt"
	"time"
)

// DefaultTTL is the expiry applied to every list/detail cache entry. Entries are
// never updated in place: they are written on a cache miss and destroyed either by
// prefix invalidation or by this TTL elapsing.
const DefaultTTL = 5 * time.Minute

// ListParams describe the query shape baked into a list cache key.
type ListParams struct {
	Page   int
	Limit  int
	SortBy string
	Order  string
	Search string
}

// Invalidation prefixes. Mutations evict whole families of keys by prefix rather
// than tracking individual entries.
func ThreadsPrefix() string { return "threads:" }

func ThreadPrefix(threadID string) string { return "thread:" + threadID }

func AllThreadDetailsPrefix() string { return "thread:" }

func RepliesPrefix(threadID string) string { return "replies:" + threadID + ":" }

func AllRepliesPrefix() string { return "replies:" }

func UsersPrefix() string { return "users:" }

func UserPrefix(userID string) string { return "user:" + userID }

// ThreadListKey addresses one page of a viewer's thread feed. The feed is scoped to
// the viewer (own threads plus followed authors), so the viewer id is part of the
// query shape.
func ThreadListKey(viewerID string, p ListParams) string {
	return fmt.Sprintf("threads:%s:p%d:l%d:%s.%s", viewerID, p.Page, p.Limit, p.SortBy, p.Order)
}

// ThreadKey addresses a single rendered thread detail as seen by a viewer
// (is_liked is viewer-specific). Invalidation still evicts by thread prefix, so
// every viewer's copy goes at once.
func ThreadKey(threadID, viewerID string) string {
	return ThreadPrefix(threadID) + ":" + viewerID
}

// ReplyListKey addresses one page of a thread's replies.
func ReplyListKey(threadID string, p ListParams) string {
	return fmt.Sprintf("replies:%s:p%d:l%d:%s.%s", threadID, p.Page, p.Limit, p.SortBy, p.Order)
}

// UserListKey addresses one page of the user directory as seen by a viewer
// (isFollowed annotations are viewer-specific).
func UserListKey(viewerID string, p ListParams) string {
	return fmt.Sprintf("users:%s:q%s:p%d:l%d:%s.%s", viewerID, p.Search, p.Page, p.Limit, p.SortBy, p.Order)
}

// UserKey addresses a single user profile as seen by a viewer.
func UserKey(userID, viewerID string) string {
	return UserPrefix(userID) + ":" + viewerID
}
