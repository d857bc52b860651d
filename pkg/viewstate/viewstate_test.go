package viewstate

import (
	"encoding/json"
	"testing"
)

func event(t *testing.T, name string, data any) Event {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal event data: %v", err)
	}
	return Event{Name: name, Data: raw}
}

func apply(t *testing.T, s *State, e Event) Effects {
	t.Helper()

	effects, err := s.Apply(e)
	if err != nil {
		t.Fatalf("apply %s: %v", e.Name, err)
	}
	return effects
}

func TestThreadCreatedPrependsOnce(t *testing.T) {
	s := NewState("viewer-1")
	s.Threads = []Thread{{ID: "t-old", Content: "old"}}

	created := event(t, "thread.created", Thread{ID: "t-new", Content: "new"})
	apply(t, s, created)

	if len(s.Threads) != 2 || s.Threads[0].ID != "t-new" {
		t.Fatalf("expected new thread prepended, got %+v", s.Threads)
	}

	// A duplicated frame replaces in place instead of inserting again.
	apply(t, s, created)
	if len(s.Threads) != 2 {
		t.Fatalf("duplicate frame inserted a second row: %+v", s.Threads)
	}
}

func TestThreadDeletedRedirectsOpenDetail(t *testing.T) {
	s := NewState("viewer-1")
	s.Threads = []Thread{{ID: "t-1"}, {ID: "t-2"}}
	s.Replies["t-1"] = []Reply{{ID: "r-1", ThreadID: "t-1"}}
	s.DetailID = "t-1"
	s.Detail = &Thread{ID: "t-1"}

	effects := apply(t, s, event(t, "thread.deleted", map[string]string{"id": "t-1"}))

	if !effects.Redirect {
		t.Fatal("expected redirect effect for the open detail view")
	}
	if s.Detail != nil || s.DetailID != "" {
		t.Fatalf("detail view not cleared: %q %+v", s.DetailID, s.Detail)
	}
	if len(s.Threads) != 1 || s.Threads[0].ID != "t-2" {
		t.Fatalf("thread not removed from list: %+v", s.Threads)
	}
	if _, ok := s.Replies["t-1"]; ok {
		t.Fatal("reply list for deleted thread not dropped")
	}

	other := apply(t, s, event(t, "thread.deleted", map[string]string{"id": "t-2"}))
	if other.Redirect {
		t.Fatal("redirect raised with no matching detail view")
	}
}

func TestReplyCreatedIsIdempotent(t *testing.T) {
	s := NewState("viewer-1")
	s.Threads = []Thread{{ID: "t-1", TotalReplies: 0}}
	s.Detail = &Thread{ID: "t-1"}
	s.DetailID = "t-1"

	created := event(t, "reply.created", map[string]any{
		"reply":         Reply{ID: "r-1", ThreadID: "t-1", Content: "first"},
		"thread_id":     "t-1",
		"total_replies": 1,
	})

	apply(t, s, created)
	apply(t, s, created)

	if got := len(s.Replies["t-1"]); got != 1 {
		t.Fatalf("expected 1 reply after duplicate frames, got %d", got)
	}
	if s.Threads[0].TotalReplies != 1 {
		t.Fatalf("list count = %d, want 1", s.Threads[0].TotalReplies)
	}
	if s.Detail.TotalReplies != 1 {
		t.Fatalf("detail count = %d, want 1", s.Detail.TotalReplies)
	}
}

func TestReplyDeletedRemovesRowAndReplacesCount(t *testing.T) {
	s := NewState("viewer-1")
	s.Threads = []Thread{{ID: "t-1", TotalReplies: 2}}
	s.Replies["t-1"] = []Reply{{ID: "r-1"}, {ID: "r-2"}}

	deleted := event(t, "reply.deleted", map[string]any{
		"id":            "r-1",
		"thread_id":     "t-1",
		"total_replies": 1,
	})
	apply(t, s, deleted)
	apply(t, s, deleted)

	if got := len(s.Replies["t-1"]); got != 1 {
		t.Fatalf("expected 1 reply left, got %d", got)
	}
	if s.Threads[0].TotalReplies != 1 {
		t.Fatalf("count = %d, want 1", s.Threads[0].TotalReplies)
	}
}

func TestLikeToggledFlagsOnlyTheActor(t *testing.T) {
	payload := map[string]any{
		"thread_id": "t-1",
		"user_id":   "actor",
		"liked":     true,
		"count":     3,
	}

	actor := NewState("actor")
	actor.Threads = []Thread{{ID: "t-1"}}
	apply(t, actor, event(t, "like.toggled", payload))
	if !actor.Threads[0].IsLiked || actor.Threads[0].TotalLikes != 3 {
		t.Fatalf("actor view not patched: %+v", actor.Threads[0])
	}

	bystander := NewState("someone-else")
	bystander.Threads = []Thread{{ID: "t-1"}}
	apply(t, bystander, event(t, "like.toggled", payload))
	if bystander.Threads[0].IsLiked {
		t.Fatal("isLiked leaked to a non-acting viewer")
	}
	if bystander.Threads[0].TotalLikes != 3 {
		t.Fatalf("count = %d, want 3", bystander.Threads[0].TotalLikes)
	}
}

func TestFollowToggledMovesTargetBetweenSets(t *testing.T) {
	s := NewState("viewer-1")
	target := Profile{ID: "u-2", Username: "bob"}
	s.Suggested = []Profile{target}

	followed := apply(t, s, event(t, "follow.toggled", map[string]any{
		"follower_id":  "viewer-1",
		"following_id": "u-2",
		"following":    true,
		"user":         target,
	}))
	if !followed.RefetchCounts {
		t.Fatal("expected a counts refetch hint")
	}
	if len(s.Suggested) != 0 || len(s.Following) != 1 {
		t.Fatalf("target not moved to following: suggested=%v following=%v", s.Suggested, s.Following)
	}

	unfollowed := apply(t, s, event(t, "follow.toggled", map[string]any{
		"follower_id":  "viewer-1",
		"following_id": "u-2",
		"following":    false,
		"user":         target,
	}))
	if !unfollowed.RefetchCounts {
		t.Fatal("expected a counts refetch hint")
	}
	if len(s.Following) != 0 || len(s.Suggested) != 1 {
		t.Fatalf("target not moved back to suggested: suggested=%v following=%v", s.Suggested, s.Following)
	}
}

func TestFollowToggledByAnotherViewerOnlyHintsCounts(t *testing.T) {
	s := NewState("viewer-1")
	s.Suggested = []Profile{{ID: "u-2"}}

	effects := apply(t, s, event(t, "follow.toggled", map[string]any{
		"follower_id":  "someone-else",
		"following_id": "u-2",
		"following":    true,
	}))

	if !effects.RefetchCounts {
		t.Fatal("expected a counts refetch hint")
	}
	if len(s.Suggested) != 1 || len(s.Following) != 0 {
		t.Fatal("another viewer's follow mutated this viewer's sets")
	}
}

func TestUserUpdatedReplacesProfileAndHintsLists(t *testing.T) {
	s := NewState("viewer-1")
	s.Profiles["u-2"] = Profile{ID: "u-2", FullName: "Old Name"}

	effects := apply(t, s, event(t, "user.updated", map[string]any{
		"user": Profile{ID: "u-2", FullName: "New Name"},
	}))

	if !effects.RefetchLists {
		t.Fatal("expected a lists refetch hint for denormalised author fields")
	}
	if s.Profiles["u-2"].FullName != "New Name" {
		t.Fatalf("profile not replaced: %+v", s.Profiles["u-2"])
	}
}

func TestUnknownEventIsSkipped(t *testing.T) {
	s := NewState("viewer-1")

	effects, err := s.Apply(Event{Name: "future.kind", Data: json.RawMessage(`{"x":1}`)})
	if err != nil {
		t.Fatalf("unknown event returned error: %v", err)
	}
	if effects != (Effects{}) {
		t.Fatalf("unknown event produced effects: %+v", effects)
	}
}
