package chathub_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wantok/backend/internal/chathub"
	"wantok/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHub() *chathub.ManagerService {
	return chathub.NewManagerService(nil, nil, nil)
}

func pairedPayload(t *testing.T, c *MockClient) models.PairedPayload {
	t.Helper()
	ev, ok := c.last(models.EventPaired)
	require.True(t, ok, "expected a paired event for %s", c.GetConnID())
	p, ok := ev.Payload.(models.PairedPayload)
	require.True(t, ok)
	return p
}

func state(t *testing.T, hub *chathub.ManagerService, connID string) chathub.ConnectionState {
	t.Helper()
	s, ok := hub.State(connID)
	require.True(t, ok, "connection %s is not tracked", connID)
	return s
}

func TestManager_AuthenticatePublishesPresence(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "AU"))

	ev, ok := a.last(models.EventAuthenticated)
	require.True(t, ok)
	assert.Equal(t, "ua", ev.Payload.(models.Profile).UserID)

	upd, ok := a.last(models.EventOnlineUsersUpdate)
	require.True(t, ok)
	conns := upd.Payload.(models.OnlineUsersPayload).Connections
	if assert.Len(t, conns, 2) {
		assert.Equal(t, "ua", conns[0].ID)
		assert.Equal(t, "ub", conns[1].ID)
		assert.Equal(t, "cb", conns[1].SocketID)
	}
	assert.Equal(t, 1, b.count(models.EventOnlineUsersUpdate))
	assert.Equal(t, 2, hub.OnlineCount())
}

func TestManager_FindPartner_PairsSymmetrically(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "AU"))

	require.NoError(t, hub.FindPartner("ca", anyFilters))
	assert.Equal(t, 1, a.count(models.EventWaiting))
	sa := state(t, hub, "ca")
	assert.Equal(t, models.StatusWaiting, sa.Status)
	assert.True(t, sa.InQueue)

	require.NoError(t, hub.FindPartner("cb", models.Filters{}))

	pa := pairedPayload(t, a)
	pb := pairedPayload(t, b)
	assert.True(t, pa.Initiator, "the waiting side initiates")
	assert.False(t, pb.Initiator)
	assert.Equal(t, "ub", pa.PartnerInfo.Username)
	assert.Equal(t, "ua", pb.PartnerInfo.Username)

	sa, sb := state(t, hub, "ca"), state(t, hub, "cb")
	assert.Equal(t, models.StatusChatting, sa.Status)
	assert.Equal(t, models.StatusChatting, sb.Status)
	assert.Equal(t, "cb", sa.Partner)
	assert.Equal(t, "ca", sb.Partner)
	assert.NotEmpty(t, sa.SessionID)
	assert.Equal(t, sa.SessionID, sb.SessionID)
	assert.False(t, sa.InQueue)
	assert.Empty(t, hub.QueuedConnIDs())
	assert.Equal(t, 0, b.count(models.EventWaiting))

	for _, row := range hub.Snapshot() {
		assert.Equal(t, models.StatusChatting, row.Status)
	}
}

func TestManager_FindPartner_RespectsBothFilters(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	c := connect(hub, "cc", profile("uc", "Female", "AU"))

	require.NoError(t, hub.FindPartner("ca", models.Filters{GenderFilter: "Female", CountryFilter: "any"}))
	require.NoError(t, hub.FindPartner("cb", models.Filters{GenderFilter: "Female", CountryFilter: "any"}))

	assert.Equal(t, []string{"ca", "cb"}, hub.QueuedConnIDs(), "b rejects a, so both wait")

	require.NoError(t, hub.FindPartner("cc", anyFilters))

	assert.Equal(t, "ca", state(t, hub, "cc").Partner, "oldest compatible entry wins")
	assert.Equal(t, 1, a.count(models.EventPaired))
	assert.Equal(t, 0, b.count(models.EventPaired))
	assert.Equal(t, 1, c.count(models.EventPaired))
	assert.Equal(t, []string{"cb"}, hub.QueuedConnIDs())
}

func TestManager_FindPartner_OldestFirst(t *testing.T) {
	hub := newHub()
	connect(hub, "c1", profile("u1", "Male", "PG"))
	connect(hub, "c2", profile("u2", "Male", "PG"))
	connect(hub, "c3", profile("u3", "Female", "PG"))

	require.NoError(t, hub.FindPartner("c1", anyFilters))
	require.NoError(t, hub.FindPartner("c2", anyFilters))
	assert.Equal(t, "c2", state(t, hub, "c1").Partner, "both any, so they pair immediately")

	connect(hub, "c4", profile("u4", "Male", "PG"))
	connect(hub, "c5", profile("u5", "Male", "PG"))
	require.NoError(t, hub.FindPartner("c4", models.Filters{GenderFilter: "Female"}))
	require.NoError(t, hub.FindPartner("c5", models.Filters{GenderFilter: "Female"}))
	require.NoError(t, hub.FindPartner("c3", anyFilters))

	assert.Equal(t, "c4", state(t, hub, "c3").Partner)
	assert.Equal(t, []string{"c5"}, hub.QueuedConnIDs())
}

func TestManager_FindPartner_RequiresAuthentication(t *testing.T) {
	hub := newHub()
	c := newMockClient("anon")
	hub.Attach(c)

	err := hub.FindPartner("anon", anyFilters)
	assert.ErrorIs(t, err, chathub.ErrNotAuthenticated)

	ev, ok := c.last(models.EventError)
	require.True(t, ok)
	assert.Equal(t, chathub.CodeNotAuthenticated, ev.Payload.(models.ErrorPayload).Code)
	assert.Empty(t, hub.QueuedConnIDs())

	assert.ErrorIs(t, hub.FindPartner("missing", anyFilters), chathub.ErrConnectionClosed)
}

func TestManager_FindPartner_WhileWaitingRequeuesAtTail(t *testing.T) {
	hub := newHub()
	connect(hub, "c1", profile("u1", "Male", "PG"))
	connect(hub, "c2", profile("u2", "Male", "PG"))

	require.NoError(t, hub.FindPartner("c1", models.Filters{GenderFilter: "Female"}))
	require.NoError(t, hub.FindPartner("c2", models.Filters{GenderFilter: "Female"}))
	require.NoError(t, hub.FindPartner("c1", models.Filters{GenderFilter: "Female", CountryFilter: "PG"}))

	assert.Equal(t, []string{"c2", "c1"}, hub.QueuedConnIDs())
	assert.Equal(t, "PG", state(t, hub, "c1").Filters.CountryFilter)
}

func TestManager_FindPartner_WhileChattingEndsSession(t *testing.T) {
	hub := newHub()
	connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("ca", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))

	require.NoError(t, hub.FindPartner("ca", anyFilters))

	assert.Equal(t, 1, b.count(models.EventPartnerDisconnected))
	sa, sb := state(t, hub, "ca"), state(t, hub, "cb")
	assert.Equal(t, models.StatusWaiting, sa.Status)
	assert.Equal(t, models.StatusOnline, sb.Status)
	assert.Empty(t, sb.Partner)
	assert.False(t, sb.InQueue)
}

func TestManager_EndChat(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("ca", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))

	hub.EndChat("ca")

	assert.Equal(t, 0, a.count(models.EventPartnerDisconnected))
	assert.Equal(t, 1, b.count(models.EventPartnerDisconnected))
	for _, id := range []string{"ca", "cb"} {
		s := state(t, hub, id)
		assert.Equal(t, models.StatusOnline, s.Status)
		assert.Empty(t, s.Partner)
		assert.Empty(t, s.SessionID)
	}

	hub.EndChat("cb")
	assert.Equal(t, 0, a.count(models.EventPartnerDisconnected), "ending twice notifies nobody")
}

func TestManager_EndChat_WhileWaitingLeavesQueue(t *testing.T) {
	hub := newHub()
	connect(hub, "ca", profile("ua", "Male", "PG"))
	require.NoError(t, hub.FindPartner("ca", anyFilters))

	hub.EndChat("ca")

	assert.Empty(t, hub.QueuedConnIDs())
	assert.Equal(t, models.StatusOnline, state(t, hub, "ca").Status)
}

func TestManager_Skip(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	c := connect(hub, "cc", profile("uc", "Female", "AU"))
	require.NoError(t, hub.FindPartner("ca", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))
	require.NoError(t, hub.FindPartner("cc", anyFilters))
	a.reset()

	require.NoError(t, hub.Skip("ca"))

	assert.Equal(t, 1, b.count(models.EventPartnerDisconnected))
	assert.Equal(t, "cc", state(t, hub, "ca").Partner)
	assert.False(t, pairedPayload(t, a).Initiator)
	assert.True(t, pairedPayload(t, c).Initiator)
	sb := state(t, hub, "cb")
	assert.Equal(t, models.StatusOnline, sb.Status)
	assert.False(t, sb.InQueue, "the skipped partner is not requeued")
}

func TestManager_Skip_QueuesWhenNobodyWaits(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("ca", models.Filters{CountryFilter: "PG"}))
	require.NoError(t, hub.FindPartner("cb", anyFilters))

	require.NoError(t, hub.Skip("ca"))

	assert.Equal(t, []string{"ca"}, hub.QueuedConnIDs())
	assert.Equal(t, "PG", state(t, hub, "ca").Filters.CountryFilter, "skip reuses the last filters")
	assert.Equal(t, 2, a.count(models.EventWaiting))
}

func TestManager_Disconnect_WhileWaiting(t *testing.T) {
	hub := newHub()
	connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("ca", models.Filters{GenderFilter: "Male"}))
	b.reset()

	hub.Disconnect("ca")

	assert.Empty(t, hub.QueuedConnIDs())
	_, ok := hub.State("ca")
	assert.False(t, ok)
	assert.Equal(t, 1, hub.OnlineCount())

	upd, ok := b.last(models.EventOnlineUsersUpdate)
	require.True(t, ok)
	assert.Len(t, upd.Payload.(models.OnlineUsersPayload).Connections, 1)
}

func TestManager_Disconnect_WhileChattingNotifiesPartnerOnce(t *testing.T) {
	hub := newHub()
	connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("ca", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))

	hub.Disconnect("ca")
	hub.Disconnect("ca")
	hub.EndChat("cb")

	assert.Equal(t, 1, b.count(models.EventPartnerDisconnected))
	sb := state(t, hub, "cb")
	assert.Equal(t, models.StatusOnline, sb.Status)
	assert.Empty(t, sb.Partner)
	assert.False(t, sb.InQueue)
}

func TestManager_Disconnect_Unauthenticated(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	anon := newMockClient("anon")
	hub.Attach(anon)
	a.reset()

	hub.Disconnect("anon")

	assert.Equal(t, 0, a.count(models.EventOnlineUsersUpdate), "presence did not change")
	assert.Equal(t, 1, hub.OnlineCount())
}

func TestManager_ReconnectSupersedesOldConnection(t *testing.T) {
	hub := newHub()
	old := connect(hub, "old", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("old", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))

	fresh := connect(hub, "new", profile("ua", "Male", "PG"))

	ev, ok := old.last(models.EventError)
	require.True(t, ok)
	assert.Equal(t, chathub.CodeSessionReplaced, ev.Payload.(models.ErrorPayload).Code)
	assert.Eventually(t, func() bool { return old.closeCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, b.count(models.EventPartnerDisconnected))

	_, ok = hub.State("old")
	assert.False(t, ok)
	assert.Equal(t, 2, hub.OnlineCount())

	snap := hub.Snapshot()
	assert.Equal(t, "ua", snap[0].ID, "reconnect keeps the registry position")
	assert.Equal(t, "new", snap[0].SocketID)
	assert.Equal(t, models.StatusOnline, snap[0].Status)

	hub.Disconnect("old")
	assert.Equal(t, 2, hub.OnlineCount(), "late disconnect of the old socket is ignored")
	assert.Equal(t, 1, fresh.count(models.EventAuthenticated))
}

func TestManager_Relay(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))

	offer := json.RawMessage(`{"sdp":"v=0\r\n","type":"offer"}`)
	assert.False(t, hub.Relay("ca", models.SignalOffer, offer), "no partner, dropped")

	require.NoError(t, hub.FindPartner("ca", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))

	assert.True(t, hub.Relay("ca", models.SignalOffer, offer))
	ev, ok := b.last(models.SignalOffer)
	require.True(t, ok)
	assert.Equal(t, offer, ev.Payload)
	assert.Equal(t, 0, a.count(models.SignalOffer))

	assert.True(t, hub.Relay("cb", models.SignalMessage, json.RawMessage(`"hello"`)))
	msg, ok := a.last(models.SignalMessage)
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`"hello"`), msg.Payload)
}

func TestManager_Kick(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))
	b := connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("ca", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))

	assert.False(t, hub.Kick(models.KickCommand{UserID: "nobody"}))
	assert.True(t, hub.Kick(models.KickCommand{UserID: "ua", Reason: "nudity", SuspensionType: models.SuspensionPermanent}))

	ev, ok := a.last(models.EventAccountSuspended)
	require.True(t, ok)
	assert.Equal(t, "nudity", ev.Payload.(models.SuspendedPayload).Reason)
	assert.Eventually(t, func() bool { return a.closeCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, b.count(models.EventPartnerDisconnected))
	assert.Equal(t, 1, hub.OnlineCount())
}

func TestManager_FullBufferClosesClient(t *testing.T) {
	hub := newHub()
	slow := newMockClientWithBuffer("slow", 1)
	hub.Attach(slow)
	require.NoError(t, hub.Authenticate("slow", profile("us", "Male", "PG")))

	assert.Eventually(t, func() bool { return slow.closeCount() > 0 }, time.Second, 5*time.Millisecond)
}

func TestManager_ConcurrentFindPartner(t *testing.T) {
	hub := newHub()
	const n = 40
	for i := 0; i < n; i++ {
		connect(hub, fmt.Sprintf("c%d", i), profile(fmt.Sprintf("u%d", i), "Male", "PG"))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = hub.FindPartner(id, anyFilters)
			if id == "c7" {
				hub.Disconnect("c3")
			}
		}(fmt.Sprintf("c%d", i))
	}
	wg.Wait()

	assert.LessOrEqual(t, len(hub.QueuedConnIDs()), 1, "two open searchers never wait side by side")
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("c%d", i)
		s, ok := hub.State(id)
		if !ok {
			continue
		}
		switch s.Status {
		case models.StatusChatting:
			p := state(t, hub, s.Partner)
			assert.Equal(t, id, p.Partner, "partnership must be mutual")
			assert.Equal(t, s.SessionID, p.SessionID)
			assert.False(t, s.InQueue)
		case models.StatusWaiting:
			assert.True(t, s.InQueue)
			assert.Empty(t, s.Partner)
		case models.StatusOnline:
			assert.Empty(t, s.Partner)
			assert.False(t, s.InQueue)
		}
	}
}

type recordedSession struct {
	id     string
	reason string
}

type fakeRecorder struct {
	mu      sync.Mutex
	started []models.ChatSession
	ended   []recordedSession
}

func (r *fakeRecorder) SessionStarted(_ context.Context, s models.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, s)
	return nil
}

func (r *fakeRecorder) SessionEnded(_ context.Context, id, reason string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, recordedSession{id: id, reason: reason})
	return nil
}

func TestManager_RecordsSessions(t *testing.T) {
	rec := &fakeRecorder{}
	hub := chathub.NewManagerService(nil, rec, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	connect(hub, "ca", profile("ua", "Male", "PG"))
	connect(hub, "cb", profile("ub", "Female", "PG"))
	require.NoError(t, hub.FindPartner("ca", anyFilters))
	require.NoError(t, hub.FindPartner("cb", anyFilters))
	sessionID := state(t, hub, "ca").SessionID
	hub.Disconnect("cb")

	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.started) == 1 && len(rec.ended) == 1
	}, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, sessionID, rec.started[0].SessionID)
	assert.Equal(t, "ua", rec.started[0].User1ID, "initiator is recorded first")
	assert.Equal(t, "ub", rec.started[0].User2ID)
	assert.Equal(t, recordedSession{id: sessionID, reason: chathub.ReasonDisconnect}, rec.ended[0])
}

type authError struct{ code string }

func (e *authError) Error() string { return "rejected: " + e.code }
func (e *authError) Code() string  { return e.code }

type fakeAuthenticator struct {
	profiles map[string]models.Profile
}

func (a *fakeAuthenticator) AuthenticateConnection(_ context.Context, creds models.Credentials) (*models.Profile, error) {
	if creds.Token == "suspended" {
		return nil, &authError{code: "account_suspended"}
	}
	p, ok := a.profiles[creds.Token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &p, nil
}

func TestManager_HandleRequest(t *testing.T) {
	auth := &fakeAuthenticator{profiles: map[string]models.Profile{
		"tok-a": profile("ua", "Male", "PG"),
		"tok-b": profile("ub", "Female", "PG"),
	}}
	hub := chathub.NewManagerService(auth, nil, nil)
	ctx := context.Background()
	a, b := newMockClient("ca"), newMockClient("cb")
	hub.Attach(a)
	hub.Attach(b)

	hub.HandleRequest(ctx, "ca", models.ClientRequest{Type: models.RequestAuthenticate, Payload: json.RawMessage(`{"token":"tok-a"}`)})
	hub.HandleRequest(ctx, "cb", models.ClientRequest{Type: models.RequestAuthenticate, Payload: json.RawMessage(`{"token":"tok-b"}`)})
	assert.Equal(t, 1, a.count(models.EventAuthenticated))

	hub.HandleRequest(ctx, "ca", models.ClientRequest{Type: models.RequestFindPartner, Payload: json.RawMessage(`{"genderFilter":"Female","countryFilter":"any"}`)})
	hub.HandleRequest(ctx, "cb", models.ClientRequest{Type: models.RequestFindPartner})
	assert.Equal(t, "cb", state(t, hub, "ca").Partner)

	hub.HandleRequest(ctx, "cb", models.ClientRequest{Type: models.SignalICECandidate, Payload: json.RawMessage(`{"candidate":"x"}`)})
	assert.Equal(t, 1, a.count(models.SignalICECandidate))

	hub.HandleRequest(ctx, "ca", models.ClientRequest{Type: "dance"})
	ev, ok := a.last(models.EventError)
	require.True(t, ok)
	assert.Equal(t, chathub.CodeBadRequest, ev.Payload.(models.ErrorPayload).Code)

	a.reset()
	hub.HandleRequest(ctx, "ca", models.ClientRequest{Type: models.RequestOnlineUsers})
	assert.Equal(t, 1, a.count(models.EventOnlineUsersUpdate))

	hub.HandleRequest(ctx, "ca", models.ClientRequest{Type: models.RequestEndChat})
	assert.Equal(t, 1, b.count(models.EventPartnerDisconnected))
}

func TestManager_HandleRequest_AuthenticationFailures(t *testing.T) {
	hub := chathub.NewManagerService(&fakeAuthenticator{}, nil, nil)
	c := newMockClient("cx")
	hub.Attach(c)
	ctx := context.Background()

	hub.HandleRequest(ctx, "cx", models.ClientRequest{Type: models.RequestAuthenticate, Payload: json.RawMessage(`{"token":"suspended"}`)})
	ev, ok := c.last(models.EventError)
	require.True(t, ok)
	assert.Equal(t, "account_suspended", ev.Payload.(models.ErrorPayload).Code)

	hub.HandleRequest(ctx, "cx", models.ClientRequest{Type: models.RequestAuthenticate, Payload: json.RawMessage(`{"token":"nope"}`)})
	ev, _ = c.last(models.EventError)
	assert.Equal(t, chathub.CodeAuthFailed, ev.Payload.(models.ErrorPayload).Code)

	hub.HandleRequest(ctx, "cx", models.ClientRequest{Type: models.RequestAuthenticate, Payload: json.RawMessage(`{}`)})
	ev, _ = c.last(models.EventError)
	assert.Equal(t, chathub.CodeBadRequest, ev.Payload.(models.ErrorPayload).Code)

	assert.Equal(t, 0, hub.OnlineCount())
}

func TestManager_ListenForKicks(t *testing.T) {
	hub := newHub()
	a := connect(hub, "ca", profile("ua", "Male", "PG"))

	messages := make(chan *redis.Message, 2)
	messages <- &redis.Message{Channel: "moderation:kick", Payload: "not json"}
	messages <- &redis.Message{Channel: "moderation:kick", Payload: `{"userId":"ua","reason":"weapon","suspensionType":"temporary"}`}
	close(messages)

	hub.ListenForKicks(context.Background(), messages)

	assert.Equal(t, 1, a.count(models.EventAccountSuspended))
	assert.Equal(t, 0, hub.OnlineCount())
}
