package session

import "time"

type State string

const (
	StateStart             State = "START"
	StateBooking           State = "BOOKING"
	StateWaitingForDetails State = "WAITING_FOR_DETAILS"
	StateCancelling        State = "CANCELLING"
	StateReadyToBook       State = "READY_TO_BOOK"
)

// PendingBooking holds the booking fields collected so far.
type PendingBooking struct {
	Day         string
	Time        string
	Service     string
	ClientName  string
	ClientPhone string
}

func (p PendingBooking) IsZero() bool {
	return p == PendingBooking{}
}

// Session is one user's conversation progress.
type Session struct {
	ID           string
	State        State
	Pending      PendingBooking
	CreatedAt    time.Time
	LastActivity time.Time
}

// Reset returns the session to START and drops the pending booking.
func (s *Session) Reset() {
	s.State = StateStart
	s.Pending = PendingBooking{}
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) > ttl
}
