package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/types"
)

// memStore is an in-memory Store used to simulate many clients hammering a
// shared queue table. The single mutex gives every method the same
// all-or-nothing visibility a database transaction would.
type memStore struct {
	mu sync.Mutex

	users    map[string]types.User
	queue    map[string]types.QueueEntry
	convos   map[string]types.Conversation
	parts    map[string]map[string]*types.Participant
	messages []types.Message
	contacts map[string]map[string]bool
	blocks   map[string]map[string]bool
	statuses map[string]types.StatusUpdate
	views    map[string]map[string]time.Time

	// createConversationErr simulates provisioning failures after a
	// successful queue claim.
	createConversationErr error
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]types.User{},
		queue:    map[string]types.QueueEntry{},
		convos:   map[string]types.Conversation{},
		parts:    map[string]map[string]*types.Participant{},
		contacts: map[string]map[string]bool{},
		blocks:   map[string]map[string]bool{},
		statuses: map[string]types.StatusUpdate{},
		views:    map[string]map[string]time.Time{},
	}
}

func (s *memStore) addUser(username string) types.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := types.User{
		ID:        id.Generate(),
		Email:     username + "@example.org",
		Username:  username,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.users[user.ID] = user
	return user
}

func (s *memStore) queueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *memStore) UpsertUser(_ context.Context, in types.UpsertUser) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == in.Email {
			u.Username = in.Username
			u.UpdatedAt = time.Now()
			s.users[u.ID] = u
			return u, nil
		}
	}

	user := types.User{
		ID:        id.Generate(),
		Email:     in.Email,
		Username:  in.Username,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *memStore) User(_ context.Context, in types.RetrieveUser) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[in.UserID]
	if !ok {
		return types.User{}, errs.NewNotFoundError("user not found")
	}
	return user, nil
}

func (s *memStore) Users(_ context.Context, in types.ListUsers) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(in.SearchQuery)

	var out []types.User
	for _, user := range s.users {
		if user.ID == in.LoggedInUserID() {
			continue
		}
		if !strings.Contains(strings.ToLower(user.Username), query) {
			continue
		}
		out = append(out, user)
	}

	slices.SortFunc(out, func(a, b types.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

func (s *memStore) UpsertQueueEntry(_ context.Context, in types.UpsertQueueEntry) (types.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The interests column is a NOT NULL array; a nil slice would encode as
	// NULL and fail the insert against the real store.
	if in.Interests == nil {
		return types.QueueEntry{}, errors.New("null value in column interests")
	}

	entry := types.QueueEntry{
		UserID:      in.LoggedInUserID(),
		Interests:   slices.Clone(in.Interests),
		IsAnonymous: in.IsAnonymous,
		EnqueuedAt:  time.Now(),
	}
	s.queue[entry.UserID] = entry
	return entry, nil
}

func (s *memStore) DeleteQueueEntry(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.queue, userID)
	return nil
}

func (s *memStore) QueueEntry(_ context.Context, userID string) (types.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.queue[userID]
	if !ok {
		return types.QueueEntry{}, errs.NewNotFoundError("queue entry not found")
	}
	return entry, nil
}

func (s *memStore) QueueCandidates(_ context.Context, in types.ListQueueCandidates) ([]types.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.QueueEntry
	for _, entry := range s.queue {
		if entry.UserID == in.ExcludeUserID {
			continue
		}
		if len(in.Interests) != 0 && !overlaps(in.Interests, entry.Interests) {
			continue
		}

		if user, ok := s.users[entry.UserID]; ok {
			u := user
			entry.User = &u
		}
		out = append(out, entry)
	}

	slices.SortFunc(out, func(a, b types.QueueEntry) int {
		if a.EnqueuedAt.Equal(b.EnqueuedAt) {
			return strings.Compare(a.UserID, b.UserID)
		}
		if a.EnqueuedAt.Before(b.EnqueuedAt) {
			return -1
		}
		return 1
	})

	if in.Limit > 0 && len(out) > int(in.Limit) {
		out = out[:in.Limit]
	}
	return out, nil
}

func (s *memStore) ClaimQueuePair(_ context.Context, userID, peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, haveOwn := s.queue[userID]
	_, havePeer := s.queue[peerID]
	if !haveOwn || !havePeer {
		return errs.NewConflictError("queue entry already claimed")
	}

	delete(s.queue, userID)
	delete(s.queue, peerID)
	return nil
}

func (s *memStore) DirectConversationBetween(_ context.Context, userID, otherUserID string) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for convoID, convo := range s.convos {
		if convo.Kind != types.ConversationKindDirect {
			continue
		}
		members := s.parts[convoID]
		if members[userID] != nil && members[otherUserID] != nil {
			return s.conversationForLocked(convoID, userID)
		}
	}
	return types.Conversation{}, errs.NewNotFoundError("conversation not found")
}

func (s *memStore) CreateConversation(_ context.Context, in types.CreateConversation) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createConversationErr != nil {
		return types.Conversation{}, s.createConversationErr
	}

	status := types.ConversationStatusPending
	if in.Kind == types.ConversationKindRandom || in.MutualContacts() ||
		(s.contacts[in.LoggedInUserID()][in.OtherUserID] && s.contacts[in.OtherUserID][in.LoggedInUserID()]) {
		status = types.ConversationStatusAccepted
	}

	convo := types.Conversation{
		ID:            id.Generate(),
		Kind:          in.Kind,
		Status:        status,
		CreatorID:     in.LoggedInUserID(),
		CreatedAt:     time.Now(),
		LastMessageAt: time.Now(),
	}
	s.convos[convo.ID] = convo
	s.parts[convo.ID] = map[string]*types.Participant{
		in.LoggedInUserID(): {ConversationID: convo.ID, UserID: in.LoggedInUserID(), JoinedAt: time.Now()},
		in.OtherUserID:      {ConversationID: convo.ID, UserID: in.OtherUserID, JoinedAt: time.Now()},
	}

	return s.conversationForLocked(convo.ID, in.LoggedInUserID())
}

func (s *memStore) Conversation(_ context.Context, in types.RetrieveConversation) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationForLocked(in.ConversationID, in.LoggedInUserID())
}

func (s *memStore) conversationForLocked(conversationID, userID string) (types.Conversation, error) {
	convo, ok := s.convos[conversationID]
	if !ok {
		return types.Conversation{}, errs.NewNotFoundError("conversation not found")
	}

	member, ok := s.parts[conversationID][userID]
	if !ok {
		return types.Conversation{}, errs.NewNotFoundError("conversation not found")
	}

	participation := *member
	for otherID, other := range s.parts[conversationID] {
		if otherID == userID {
			continue
		}
		if user, ok := s.users[other.UserID]; ok {
			u := user
			participation.OtherUser = &u
		}
	}
	convo.Participation = &participation
	return convo, nil
}

func (s *memStore) Conversations(_ context.Context, in types.ListConversations) (types.Page[types.Conversation], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var page types.Page[types.Conversation]
	for convoID := range s.convos {
		member := s.parts[convoID][in.LoggedInUserID()]
		if member == nil || member.IsArchived {
			continue
		}
		convo, err := s.conversationForLocked(convoID, in.LoggedInUserID())
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, convo)
	}

	slices.SortFunc(page.Items, func(a, b types.Conversation) int {
		if a.LastMessageAt.After(b.LastMessageAt) {
			return -1
		}
		return 1
	})
	return page, nil
}

func (s *memStore) UpdateConversationStatus(_ context.Context, in types.UpdateConversationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convo, ok := s.convos[in.ConversationID]
	if !ok {
		return errs.NewNotFoundError("conversation not found")
	}

	member := s.parts[in.ConversationID][in.LoggedInUserID()]
	if member == nil || convo.CreatorID == in.LoggedInUserID() || convo.Status != types.ConversationStatusPending {
		return errs.NewPermissionDeniedError("cannot update this conversation")
	}

	convo.Status = in.Status
	s.convos[in.ConversationID] = convo
	return nil
}

func (s *memStore) ArchiveConversation(_ context.Context, in types.ArchiveConversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member := s.parts[in.ConversationID][in.LoggedInUserID()]
	if member == nil {
		return errs.NewNotFoundError("conversation not found")
	}

	member.IsArchived = true
	return nil
}

func (s *memStore) CreateMessage(_ context.Context, in types.CreateMessage) (types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convo, ok := s.convos[in.ConversationID]
	if !ok {
		return types.Message{}, errs.NewNotFoundError("conversation not found")
	}
	member := s.parts[in.ConversationID][in.LoggedInUserID()]
	if member == nil || convo.Status != types.ConversationStatusAccepted {
		return types.Message{}, errs.NewPermissionDeniedError("cannot message in this conversation")
	}

	msg := types.Message{
		ID:             id.Generate(),
		ConversationID: in.ConversationID,
		SenderID:       in.LoggedInUserID(),
		Content:        in.Content,
		MediaPaths:     slices.Clone(in.MediaPaths()),
		CreatedAt:      time.Now(),
	}
	s.messages = append(s.messages, msg)

	convo.LastMessageAt = msg.CreatedAt
	s.convos[in.ConversationID] = convo
	return msg, nil
}

func (s *memStore) Messages(_ context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var page types.Page[types.Message]
	if s.parts[in.ConversationID][in.LoggedInUserID()] == nil {
		return page, errs.NewNotFoundError("conversation not found")
	}

	for _, msg := range s.messages {
		if msg.ConversationID != in.ConversationID {
			continue
		}
		msg.Relationship = &types.MessageRelationship{IsMine: msg.SenderID == in.LoggedInUserID()}
		page.Items = append(page.Items, msg)
	}
	return page, nil
}

func (s *memStore) CreateStatusUpdate(_ context.Context, in types.CreateStatusUpdate) (types.StatusUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bg := in.BackgroundColor
	if bg == "" {
		bg = "#1e293b"
	}

	status := types.StatusUpdate{
		ID:              id.Generate(),
		UserID:          in.LoggedInUserID(),
		Content:         in.Content,
		BackgroundColor: bg,
		Privacy:         in.Privacy,
		CreatedAt:       time.Now(),
		ExpiresAt:       time.Now().Add(24 * time.Hour),
	}
	s.statuses[status.ID] = status
	return status, nil
}

func (s *memStore) StatusUpdate(_ context.Context, statusID string) (types.StatusUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[statusID]
	if !ok || !status.ExpiresAt.After(time.Now()) {
		return types.StatusUpdate{}, errs.NewNotFoundError("status update not found")
	}
	return status, nil
}

func (s *memStore) StatusUpdates(_ context.Context, in types.ListStatusUpdates) ([]types.StatusUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := in.LoggedInUserID()

	var out []types.StatusUpdate
	for _, status := range s.statuses {
		if !status.ExpiresAt.After(time.Now()) {
			continue
		}

		visible := status.UserID == userID ||
			status.Privacy == types.StatusPrivacyEveryone ||
			(status.Privacy == types.StatusPrivacyContacts && s.contacts[status.UserID][userID])
		if !visible {
			continue
		}

		if user, ok := s.users[status.UserID]; ok {
			u := user
			status.User = &u
		}
		out = append(out, status)
	}

	slices.SortFunc(out, func(a, b types.StatusUpdate) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *memStore) ViewStatusUpdate(_ context.Context, in types.ViewStatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[in.StatusID]
	if !ok || status.UserID == in.LoggedInUserID() || !status.ExpiresAt.After(time.Now()) {
		return nil
	}

	if s.views[in.StatusID] == nil {
		s.views[in.StatusID] = map[string]time.Time{}
	}
	if _, seen := s.views[in.StatusID][in.LoggedInUserID()]; seen {
		return nil
	}

	s.views[in.StatusID][in.LoggedInUserID()] = time.Now()
	status.ViewCount++
	s.statuses[in.StatusID] = status
	return nil
}

func (s *memStore) StatusViewers(_ context.Context, in types.ListStatusViewers) ([]types.StatusView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.StatusView
	for viewerID, viewedAt := range s.views[in.StatusID] {
		view := types.StatusView{StatusID: in.StatusID, ViewerID: viewerID, ViewedAt: viewedAt}
		if user, ok := s.users[viewerID]; ok {
			u := user
			view.Viewer = &u
		}
		out = append(out, view)
	}

	slices.SortFunc(out, func(a, b types.StatusView) int {
		if a.ViewedAt.After(b.ViewedAt) {
			return -1
		}
		return 1
	})
	return out, nil
}

func (s *memStore) DeleteExpiredStatusUpdates(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for statusID, status := range s.statuses {
		if status.ExpiresAt.After(time.Now()) {
			continue
		}
		delete(s.statuses, statusID)
		delete(s.views, statusID)
		n++
	}
	return n, nil
}

// expireStatus backdates a status so expiry behavior can be exercised
// without waiting out the TTL.
func (s *memStore) expireStatus(statusID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.statuses[statusID]
	status.ExpiresAt = time.Now().Add(-time.Minute)
	s.statuses[statusID] = status
}

func (s *memStore) AddContact(_ context.Context, in types.AddContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contacts[in.LoggedInUserID()] == nil {
		s.contacts[in.LoggedInUserID()] = map[string]bool{}
	}
	s.contacts[in.LoggedInUserID()][in.ContactID] = true
	return nil
}

func (s *memStore) BlockUser(_ context.Context, in types.BlockUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blocks[in.LoggedInUserID()] == nil {
		s.blocks[in.LoggedInUserID()] = map[string]bool{}
	}
	s.blocks[in.LoggedInUserID()][in.BlockedID] = true
	return nil
}

func (s *memStore) UnblockUser(_ context.Context, in types.BlockUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blocks[in.LoggedInUserID()], in.BlockedID)
	return nil
}

func (s *memStore) BlockedEitherWay(_ context.Context, userID, otherUserID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blocks[userID][otherUserID] || s.blocks[otherUserID][userID], nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// memPubSub fans messages out to subscribers synchronously.
type memPubSub struct {
	mu   sync.Mutex
	subs map[string][]*memSub
}

type memSub struct {
	topic string
	cb    func(data []byte)
}

func newMemPubSub() *memPubSub {
	return &memPubSub{subs: map[string][]*memSub{}}
}

func (p *memPubSub) Pub(topic string, data []byte) error {
	p.mu.Lock()
	subs := slices.Clone(p.subs[topic])
	p.mu.Unlock()

	for _, sub := range subs {
		sub.cb(data)
	}
	return nil
}

func (p *memPubSub) Sub(topic string, cb func(data []byte)) (func() error, error) {
	sub := &memSub{topic: topic, cb: cb}

	p.mu.Lock()
	p.subs[topic] = append(p.subs[topic], sub)
	p.mu.Unlock()

	return func() error {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.subs[topic] = slices.DeleteFunc(p.subs[topic], func(s *memSub) bool { return s == sub })
		return nil
	}, nil
}
