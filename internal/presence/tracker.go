package presence

import (
	"sync"
)

// Entry is one announced (user, connection) pair on a board. A user with two
// tabs has two entries with distinct connection IDs.
type Entry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ConnID   string `json:"socketId"`
}

// Tracker owns the volatile per-board rosters. It is the only mutable shared
// in-process state besides the room hub and holds nothing across a restart.
// Broadcasting roster snapshots is the caller's job.
type Tracker struct {
	mu     sync.Mutex
	boards map[int64][]Entry
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{boards: make(map[int64][]Entry)}
}

// Announce replaces any entry for this connection on the board and appends the
// new one. It returns the full roster snapshot to broadcast.
func (t *Tracker) Announce(boardID int64, userID, username, connID string) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	roster := t.boards[boardID]
	filtered := make([]Entry, 0, len(roster)+1)
	for _, e := range roster {
		if e.ConnID != connID {
			filtered = append(filtered, e)
		}
	}
	filtered = append(filtered, Entry{UserID: userID, Username: username, ConnID: connID})
	t.boards[boardID] = filtered

	return snapshot(filtered)
}

// Disconnect removes the connection from every board's roster and returns a
// snapshot for each board whose roster changed. O(boards × entries), fine at
// the expected scale.
func (t *Tracker) Disconnect(connID string) map[int64][]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := make(map[int64][]Entry)
	for boardID, roster := range t.boards {
		filtered := make([]Entry, 0, len(roster))
		for _, e := range roster {
			if e.ConnID != connID {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) != len(roster) {
			if len(filtered) == 0 {
				delete(t.boards, boardID)
			} else {
				t.boards[boardID] = filtered
			}
			changed[boardID] = snapshot(filtered)
		}
	}

	return changed
}

// Roster returns the current snapshot for a board.
func (t *Tracker) Roster(boardID int64) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return snapshot(t.boards[boardID])
}

func snapshot(roster []Entry) []Entry {
	out := make([]Entry, len(roster))
	copy(out, roster)
	return out
}
