package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListKeysFallUnderInvalidationPrefixes(t *testing.T) {
	p := ListParams{Page: 2, Limit: 25, SortBy: "created_at", Order: "desc"}

	require.True(t, strings.HasPrefix(ThreadListKey("viewer-1", p), ThreadsPrefix()))
	require.True(t, strings.HasPrefix(ReplyListKey("thread-1", p), RepliesPrefix("thread-1")))
	require.True(t, strings.HasPrefix(UserListKey("viewer-1", p), UsersPrefix()))
	require.True(t, strings.HasPrefix(ThreadKey("thread-1", "viewer-1"), ThreadPrefix("thread-1")))
	require.True(t, strings.HasPrefix(UserKey("user-1", "viewer-1"), UserPrefix("user-1")))
}

func TestListKeysDifferPerQueryShape(t *testing.T) {
	base := ListParams{Page: 1, Limit: 10, SortBy: "created_at", Order: "desc"}
	nextPage := base
	nextPage.Page = 2

	require.NotEqual(t, ThreadListKey("v1", base), ThreadListKey("v1", nextPage))
	require.NotEqual(t, ThreadListKey("v1", base), ThreadListKey("v2", base),
		"feed pages are viewer specific")

	searched := base
	searched.Search = "jo"
	require.NotEqual(t, UserListKey("v1", base), UserListKey("v1", searched))
}

func TestRepliesPrefixIsThreadScoped(t *testing.T) {
	p := ListParams{Page: 1, Limit: 10, SortBy: "created_at", Order: "asc"}

	require.False(t, strings.HasPrefix(ReplyListKey("thread-2", p), RepliesPrefix("thread-1")),
		"invalidating one thread's replies must not touch another's")
}
