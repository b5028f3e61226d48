package live

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSub struct {
	id     string
	mu     sync.Mutex
	got    [][]byte
	fail   bool
	closed bool
	stall  chan struct{} // when set, Send waits for it to close
}

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) Send(p []byte) error {
	if f.stall != nil {
		<-f.stall
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.got = append(f.got, p)
	return nil
}

func (f *fakeSub) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSub) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.got...)
}

func (f *fakeSub) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_PublishReachesOnlyOwner(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	alice := &fakeSub{id: "a"}
	bob := &fakeSub{id: "b"}
	h.Register("alice", alice)
	h.Register("bob", bob)

	h.Publish("alice", Event{Type: SongCreated, ID: "song-1"})

	waitFor(t, func() bool { return len(alice.messages()) == 1 })

	var ev Event
	if err := json.Unmarshal(alice.messages()[0], &ev); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if ev.Type != SongCreated || ev.ID != "song-1" || ev.At.IsZero() {
		t.Errorf("unexpected event: %+v", ev)
	}

	if n := len(bob.messages()); n != 0 {
		t.Errorf("bob received %d messages, want 0", n)
	}
}

func TestHub_DropsFailingSubscriber(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	bad := &fakeSub{id: "bad", fail: true}
	good := &fakeSub{id: "good"}
	h.Register("owner", bad)
	h.Register("owner", good)

	h.Publish("owner", Event{Type: SetlistUpdated, ID: "s"})

	waitFor(t, func() bool { return h.Connections("owner") == 1 })
	if !bad.isClosed() {
		t.Error("failing subscriber should be closed")
	}
	waitFor(t, func() bool { return len(good.messages()) == 1 })
}

func TestHub_StalledSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	stalled := &fakeSub{id: "stalled", stall: make(chan struct{})}
	release := sync.OnceFunc(func() { close(stalled.stall) })
	defer release()
	good := &fakeSub{id: "good"}
	h.Register("owner", stalled)
	h.Register("owner", good)

	n := sendBuffer + 2
	for i := 0; i < n; i++ {
		published := make(chan struct{})
		go func() {
			h.Publish("owner", Event{Type: SongUpdated, ID: "song"})
			close(published)
		}()
		select {
		case <-published:
		case <-time.After(time.Second):
			t.Fatalf("Publish %d blocked behind a stalled subscriber", i)
		}
		want := i + 1
		waitFor(t, func() bool { return len(good.messages()) == want })
	}

	waitFor(t, func() bool { return h.Connections("owner") == 1 })

	// The dropped subscriber is closed once its blocked write returns.
	release()
	waitFor(t, stalled.isClosed)
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	s := &fakeSub{id: "s"}
	h.Register("owner", s)
	if h.Connections("owner") != 1 {
		t.Fatal("expected one connection")
	}
	h.Unregister("owner", s)
	if h.Connections("owner") != 0 {
		t.Error("expected zero connections after Unregister")
	}
}

func TestHub_CloseClosesSubscribersAndIsIdempotent(t *testing.T) {
	h := NewHub(zap.NewNop())
	s := &fakeSub{id: "s"}
	h.Register("owner", s)

	h.Close()
	h.Close()

	if !s.isClosed() {
		t.Error("subscriber should be closed with the hub")
	}

	late := &fakeSub{id: "late"}
	h.Register("owner", late)
	if !late.isClosed() {
		t.Error("registering after Close should close the subscriber")
	}
	h.Publish("owner", Event{Type: SongDeleted})
	if h.Connections("owner") != 0 {
		t.Error("closed hub should report zero connections")
	}
}

func TestHub_NilPublish(t *testing.T) {
	var h *Hub
	h.Publish("owner", Event{Type: SongCreated})
}
