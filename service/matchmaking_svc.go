package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

// queueTopic carries queue-table change notifications. Payloads are empty on
// purpose: searchers re-query authoritative state, they never trust events.
const queueTopic = "queue_entries_changed"

func pairedTopic(userID string) string { return "match_paired_" + userID }

// errProvision marks a conversation provisioning failure after both queue
// entries were already consumed. The entries are not restored; both sides get
// re-offered the queue.
var errProvision = errs.NewUnavailableError("conversation provisioning failed")

// pairedNotice tells a waiting user that another client consumed their queue
// entry. An empty ConversationID means provisioning failed after the claim.
type pairedNotice struct {
	ConversationID   string
	MatcherAnonymous bool
}

// matchSession owns one user's matchmaking state. All transitions go through
// transition() so a match result racing a cancel resolves in exactly one
// winner.
type matchSession struct {
	userID      string
	interests   []string
	isAnonymous bool

	ctx    context.Context
	cancel context.CancelFunc

	events chan types.MatchEvent
	notify chan struct{}
	paired chan pairedNotice

	mu    sync.Mutex
	state types.MatchState
}

func (s *matchSession) State() types.MatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *matchSession) transition(from, to types.MatchState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *matchSession) emit(ev types.MatchEvent) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

// StartMatching joins the random-match queue and returns the event stream
// for this search: searching, then one of matched, timed_out or error.
// Joining while already queued replaces interests/anonymity and resets the
// wait (upsert semantics).
func (svc *Service) StartMatching(ctx context.Context, in types.UpsertQueueEntry) (<-chan types.MatchEvent, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	sessCtx, cancel := context.WithCancel(svc.baseCtx)
	sess := &matchSession{
		userID:      loggedInUser.ID,
		interests:   in.Interests,
		isAnonymous: in.IsAnonymous,
		ctx:         sessCtx,
		cancel:      cancel,
		events:      make(chan types.MatchEvent, 8),
		notify:      make(chan struct{}, 1),
		paired:      make(chan pairedNotice, 1),
		state:       types.MatchStateSearching,
	}

	svc.sessionsMu.Lock()
	if prev, ok := svc.sessions[loggedInUser.ID]; ok {
		prev.cancel()
	}
	svc.sessions[loggedInUser.ID] = sess
	svc.lastJoin[loggedInUser.ID] = in
	svc.sessionsMu.Unlock()

	if _, err := svc.Store.UpsertQueueEntry(ctx, in); err != nil {
		svc.removeSession(sess)
		cancel()
		svc.logger.Error("join match queue", "user_id", loggedInUser.ID, "err", err)
		return nil, errs.NewUnavailableError("could not join the match queue")
	}

	svc.metrics.QueueJoins.Inc()
	svc.metrics.ActiveSearches.Inc()

	unsubQueue, err := svc.PubSub.Sub(queueTopic, func([]byte) {
		select {
		case sess.notify <- struct{}{}:
		default:
		}
	})
	if err != nil {
		svc.abortSession(sess, cancel)
		return nil, errs.NewUnavailableError("could not watch the match queue")
	}

	unsubPaired, err := svc.PubSub.Sub(pairedTopic(loggedInUser.ID), func(data []byte) {
		var notice pairedNotice
		if err := decodeGob(data, &notice); err != nil {
			svc.logger.Error("decode paired notice", "err", err)
			return
		}

		select {
		case sess.paired <- notice:
		default:
		}
	})
	if err != nil {
		_ = unsubQueue()
		svc.abortSession(sess, cancel)
		return nil, errs.NewUnavailableError("could not watch the match queue")
	}

	svc.publishQueueChanged()

	// Buffered into the stream before the session goroutine runs, so
	// searching always precedes matched and never races the stream close.
	sess.emit(types.MatchEvent{Kind: types.MatchEventSearching})

	svc.wg.Go(func() {
		svc.runMatchSession(sess, unsubQueue, unsubPaired)
	})

	return sess.events, nil
}

// CancelMatching leaves the queue and tears the session down. Idempotent.
func (svc *Service) CancelMatching(ctx context.Context) error {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	svc.sessionsMu.Lock()
	sess := svc.sessions[loggedInUser.ID]
	delete(svc.lastJoin, loggedInUser.ID)
	svc.sessionsMu.Unlock()

	if sess != nil {
		sess.mu.Lock()
		sess.state = types.MatchStateIdle
		sess.mu.Unlock()
		sess.cancel()
		svc.removeSession(sess)
	}

	if err := svc.Store.DeleteQueueEntry(ctx, loggedInUser.ID); err != nil {
		svc.logger.Error("leave match queue", "user_id", loggedInUser.ID, "err", err)
		return errs.NewUnavailableError("could not leave the match queue")
	}

	svc.metrics.QueueLeaves.Inc()
	svc.publishQueueChanged()

	return nil
}

// Skip drops the current match and re-joins immediately with the same
// interests and anonymity.
func (svc *Service) Skip(ctx context.Context) (<-chan types.MatchEvent, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	svc.sessionsMu.Lock()
	in, ok := svc.lastJoin[loggedInUser.ID]
	svc.sessionsMu.Unlock()

	if !ok {
		return nil, errs.NewNotFoundError("no previous match search to skip from")
	}

	return svc.StartMatching(ctx, in)
}

// MatchState reports the caller's client-local matchmaking state.
func (svc *Service) MatchState(ctx context.Context) (types.MatchState, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return "", errs.Unauthenticated
	}

	svc.sessionsMu.Lock()
	sess := svc.sessions[loggedInUser.ID]
	svc.sessionsMu.Unlock()

	if sess == nil {
		return types.MatchStateIdle, nil
	}

	return sess.State(), nil
}

func (svc *Service) runMatchSession(sess *matchSession, unsubs ...func() error) {
	defer func() {
		for _, unsub := range unsubs {
			if err := unsub(); err != nil {
				svc.logger.Error("unsubscribe match session", "user_id", sess.userID, "err", err)
			}
		}

		close(sess.events)
		// A matched session stays registered so MatchState keeps reporting
		// matched until the user cancels or searches again.
		if sess.State() != types.MatchStateMatched {
			svc.removeSession(sess)
		}
		svc.metrics.ActiveSearches.Dec()
	}()

	timeout := time.NewTimer(svc.queueTimeout)
	defer timeout.Stop()

	// A compatible peer may already be waiting.
	if done := svc.tryMatch(sess); done {
		return
	}

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-sess.ctx.Done():
			// Canceled or torn down. Best-effort queue cleanup; a leaked
			// entry would block other searchers until it times out. When a
			// newer session replaced this one the row belongs to it now, so
			// leave it alone.
			svc.sessionsMu.Lock()
			current := svc.sessions[sess.userID] == sess
			svc.sessionsMu.Unlock()

			if current {
				svc.background(func(ctx context.Context) error {
					if err := svc.Store.DeleteQueueEntry(ctx, sess.userID); err != nil {
						return fmt.Errorf("cleanup queue entry: %w", err)
					}
					svc.publishQueueChanged()
					return nil
				})
			}
			return

		case <-timeout.C:
			if !sess.transition(types.MatchStateSearching, types.MatchStateIdle) {
				return
			}

			svc.metrics.QueueTimeouts.Inc()
			svc.background(func(ctx context.Context) error {
				if err := svc.Store.DeleteQueueEntry(ctx, sess.userID); err != nil {
					return fmt.Errorf("expire queue entry: %w", err)
				}
				svc.publishQueueChanged()
				return nil
			})
			sess.emit(types.MatchEvent{Kind: types.MatchEventTimedOut, Message: "no match found, try again"})
			return

		case notice := <-sess.paired:
			if done := svc.acceptPairing(sess, notice); done {
				return
			}

		case <-sess.notify:
			// Trailing-edge debounce: restart the window on every burst so a
			// notification storm costs one re-query.
			if debounce == nil {
				debounce = time.NewTimer(svc.matchDebounce)
				debounceC = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(svc.matchDebounce)
			}

		case <-debounceC:
			debounce = nil
			debounceC = nil
			if done := svc.tryMatch(sess); done {
				return
			}
		}
	}
}

// tryMatch runs one full match attempt. It reports whether the session is
// finished, successfully or not.
func (svc *Service) tryMatch(sess *matchSession) bool {
	if sess.State() != types.MatchStateSearching {
		return true
	}

	ctx, cancel := context.WithTimeout(sess.ctx, svc.backgroundTimeout)
	defer cancel()

	result, found, err := svc.attemptMatch(ctx, sess)
	if err != nil {
		if sess.ctx.Err() != nil {
			return true
		}

		if errors.Is(err, errProvision) {
			svc.metrics.ProvisionErrors.Inc()
			if sess.transition(types.MatchStateSearching, types.MatchStateIdle) {
				sess.emit(types.MatchEvent{Kind: types.MatchEventError, Message: "match failed while setting up the conversation, join the queue again"})
			}
			return true
		}

		// Transient store trouble: log and keep searching, the subscription
		// is still live and the next notification re-queries.
		svc.logger.Error("match attempt", "user_id", sess.userID, "err", err)
		return false
	}

	if !found {
		return false
	}

	return svc.deliverMatch(sess, result.Conversation.ID, result.PeerProfile())
}

// attemptMatch is the matcher: query the oldest compatible candidate, claim
// both queue entries conditionally, and provision the conversation. A lost
// claim re-queries until either a claim sticks, no candidate remains, or our
// own entry turns out to be consumed by a concurrent matcher (who will send a
// paired notice).
func (svc *Service) attemptMatch(ctx context.Context, sess *matchSession) (types.MatchResult, bool, error) {
	var out types.MatchResult

	for {
		if err := ctx.Err(); err != nil {
			return out, false, err
		}

		svc.metrics.MatchAttempts.Inc()

		candidates, err := svc.Store.QueueCandidates(ctx, types.ListQueueCandidates{
			ExcludeUserID: sess.userID,
			Interests:     sess.interests,
			Limit:         1,
		})
		if err != nil {
			return out, false, fmt.Errorf("query queue candidates: %w", err)
		}

		if len(candidates) == 0 {
			return out, false, nil
		}

		candidate := candidates[0]

		err = svc.Store.ClaimQueuePair(ctx, sess.userID, candidate.UserID)
		if errs.IsConflict(err) {
			svc.metrics.ClaimConflicts.Inc()

			// A concurrent matcher won. If our own entry is gone too, the
			// winner is pairing us and will notify; otherwise re-query.
			if _, err := svc.Store.QueueEntry(ctx, sess.userID); errs.IsNotFound(err) {
				return out, false, nil
			}

			continue
		}

		if err != nil {
			return out, false, fmt.Errorf("claim queue pair: %w", err)
		}

		create := types.CreateConversation{
			OtherUserID: candidate.UserID,
			Kind:        types.ConversationKindRandom,
		}
		create.SetLoggedInUserID(sess.userID)

		conversation, err := svc.Store.CreateConversation(ctx, create)

		svc.publishQueueChanged()

		if err != nil {
			svc.logger.Error("provision random conversation", "user_id", sess.userID, "peer_id", candidate.UserID, "err", err)
			svc.notifyPaired(candidate.UserID, pairedNotice{})
			return out, false, fmt.Errorf("%w: %v", errProvision, err)
		}

		peerUser := types.User{ID: candidate.UserID}
		if candidate.User != nil {
			peerUser = *candidate.User
		}

		out = types.MatchResult{
			Conversation: conversation,
			Own: types.QueueEntry{
				UserID:      sess.userID,
				Interests:   sess.interests,
				IsAnonymous: sess.isAnonymous,
			},
			Peer:     candidate,
			PeerUser: peerUser,
		}

		svc.metrics.MatchesTotal.Inc()
		svc.notifyPaired(candidate.UserID, pairedNotice{
			ConversationID:   conversation.ID,
			MatcherAnonymous: sess.isAnonymous,
		})

		return out, true, nil
	}
}

// acceptPairing handles the passive side of a match: another client consumed
// our queue entry. Membership is verified against the store, the notice is
// only a trigger.
func (svc *Service) acceptPairing(sess *matchSession, notice pairedNotice) bool {
	if notice.ConversationID == "" {
		if sess.transition(types.MatchStateSearching, types.MatchStateIdle) {
			sess.emit(types.MatchEvent{Kind: types.MatchEventError, Message: "match failed while setting up the conversation, join the queue again"})
		}
		return true
	}

	ctx, cancel := context.WithTimeout(sess.ctx, svc.backgroundTimeout)
	defer cancel()

	in := types.RetrieveConversation{ConversationID: notice.ConversationID}
	in.SetLoggedInUserID(sess.userID)

	conversation, err := svc.Store.Conversation(ctx, in)
	if err != nil {
		if sess.ctx.Err() != nil {
			return true
		}

		svc.logger.Error("verify paired conversation", "user_id", sess.userID, "conversation_id", notice.ConversationID, "err", err)
		if sess.transition(types.MatchStateSearching, types.MatchStateIdle) {
			sess.emit(types.MatchEvent{Kind: types.MatchEventError, Message: "match could not be confirmed, join the queue again"})
		}
		return true
	}

	peer := types.User{}
	if conversation.Participation != nil && conversation.Participation.OtherUser != nil {
		peer = *conversation.Participation.OtherUser
	}

	if notice.MatcherAnonymous || sess.isAnonymous {
		peer = peer.Anonymized()
	}

	svc.metrics.MatchesTotal.Inc()

	return svc.deliverMatch(sess, conversation.ID, peer)
}

// deliverMatch is the single point where a session becomes matched. A match
// landing after cancel is not delivered: the conversation stays valid for the
// peer, but our side archives it so nobody waits on a ghost.
func (svc *Service) deliverMatch(sess *matchSession, conversationID string, peer types.User) bool {
	if !sess.transition(types.MatchStateSearching, types.MatchStateMatched) {
		svc.logger.Warn("match completed after cancel, archiving",
			"user_id", sess.userID, "conversation_id", conversationID)

		svc.background(func(ctx context.Context) error {
			in := types.ArchiveConversation{ConversationID: conversationID}
			in.SetLoggedInUserID(sess.userID)
			if err := svc.Store.ArchiveConversation(ctx, in); err != nil {
				return fmt.Errorf("archive orphaned match conversation: %w", err)
			}
			return nil
		})
		return true
	}

	sess.emit(types.MatchEvent{
		Kind:           types.MatchEventMatched,
		ConversationID: conversationID,
		Peer:           &peer,
	})

	return true
}

func (svc *Service) publishQueueChanged() {
	if err := svc.PubSub.Pub(queueTopic, nil); err != nil {
		svc.logger.Error("publish queue change", "err", err)
	}
}

func (svc *Service) notifyPaired(userID string, notice pairedNotice) {
	b, err := encodeGob(notice)
	if err != nil {
		svc.logger.Error("encode paired notice", "err", err)
		return
	}

	if err := svc.PubSub.Pub(pairedTopic(userID), b); err != nil {
		svc.logger.Error("publish paired notice", "user_id", userID, "err", err)
	}
}

func (svc *Service) removeSession(sess *matchSession) {
	svc.sessionsMu.Lock()
	if svc.sessions[sess.userID] == sess {
		delete(svc.sessions, sess.userID)
	}
	svc.sessionsMu.Unlock()
}

// abortSession undoes a partially set-up StartMatching call.
func (svc *Service) abortSession(sess *matchSession, cancel context.CancelFunc) {
	svc.removeSession(sess)
	cancel()
	svc.metrics.ActiveSearches.Dec()

	svc.background(func(ctx context.Context) error {
		if err := svc.Store.DeleteQueueEntry(ctx, sess.userID); err != nil {
			return fmt.Errorf("cleanup queue entry: %w", err)
		}
		return nil
	})
}
