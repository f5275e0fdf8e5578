package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnounceReplacesSameConnection(t *testing.T) {
	tr := NewTracker()

	tr.Announce(1, "user-a", "Alice", "conn-1")
	roster := tr.Announce(1, "user-a", "Alice", "conn-1")

	require.Len(t, roster, 1, "re-announce from the same connection must replace, not append")
	assert.Equal(t, "conn-1", roster[0].ConnID)
}

func TestAnnounceSameUserTwoTabs(t *testing.T) {
	tr := NewTracker()

	tr.Announce(1, "user-a", "Alice", "conn-1")
	roster := tr.Announce(1, "user-a", "Alice", "conn-2")

	// Entries are per connection, not per user: two tabs, two entries.
	require.Len(t, roster, 2)
	assert.Equal(t, "conn-1", roster[0].ConnID)
	assert.Equal(t, "conn-2", roster[1].ConnID)
}

func TestAnnounceKeepsBoardsIndependent(t *testing.T) {
	tr := NewTracker()

	tr.Announce(1, "user-a", "Alice", "conn-1")
	tr.Announce(2, "user-b", "Bob", "conn-2")

	assert.Len(t, tr.Roster(1), 1)
	assert.Len(t, tr.Roster(2), 1)
}

func TestDisconnectRemovesFromEveryBoard(t *testing.T) {
	tr := NewTracker()

	tr.Announce(1, "user-a", "Alice", "conn-1")
	tr.Announce(2, "user-a", "Alice", "conn-1")
	tr.Announce(2, "user-b", "Bob", "conn-2")

	changed := tr.Disconnect("conn-1")

	// Both boards changed; board 2 keeps Bob.
	require.Len(t, changed, 2)
	assert.Empty(t, changed[1])
	require.Len(t, changed[2], 1)
	assert.Equal(t, "user-b", changed[2][0].UserID)
}

func TestDisconnectUnknownConnectionChangesNothing(t *testing.T) {
	tr := NewTracker()

	tr.Announce(1, "user-a", "Alice", "conn-1")

	changed := tr.Disconnect("conn-elsewhere")

	assert.Empty(t, changed)
	assert.Len(t, tr.Roster(1), 1)
}

func TestRosterReturnsSnapshot(t *testing.T) {
	tr := NewTracker()

	tr.Announce(1, "user-a", "Alice", "conn-1")
	roster := tr.Roster(1)
	roster[0].Username = "mutated"

	assert.Equal(t, "Alice", tr.Roster(1)[0].Username, "callers must not be able to mutate tracker state")
}
