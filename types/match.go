package types

// MatchState is the client-local matchmaking state machine:
// idle → searching → matched → chatting, with searching → idle on
// cancel/timeout and matched → searching on skip.
type MatchState string

const (
	MatchStateIdle      MatchState = "idle"
	MatchStateSearching MatchState = "searching"
	MatchStateMatched   MatchState = "matched"
	MatchStateChatting  MatchState = "chatting"
)

func (s MatchState) String() string {
	return string(s)
}

type MatchEventKind string

const (
	MatchEventSearching MatchEventKind = "searching"
	MatchEventMatched   MatchEventKind = "matched"
	MatchEventTimedOut  MatchEventKind = "timed_out"
	MatchEventError     MatchEventKind = "error"
)

// MatchEvent is delivered to the searching user's event stream. For matched
// events Peer is already anonymity-filtered.
type MatchEvent struct {
	Kind           MatchEventKind `json:"kind"`
	ConversationID string         `json:"conversationID,omitempty"`
	Peer           *User          `json:"peer,omitempty"`
	Message        string         `json:"message,omitempty"`
}

// MatchResult is what a successful claim+provision produces: the fresh
// random conversation plus both sides' queue entries as they were consumed.
type MatchResult struct {
	Conversation Conversation
	Own          QueueEntry
	Peer         QueueEntry
	PeerUser     User
}

// PeerProfile applies display-level anonymity: if either side was anonymous,
// the peer's profile is withheld.
func (r MatchResult) PeerProfile() User {
	if r.Own.IsAnonymous || r.Peer.IsAnonymous {
		return r.PeerUser.Anonymized()
	}
	return r.PeerUser
}
