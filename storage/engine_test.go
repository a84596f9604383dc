package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

func recvUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("observe channel closed unexpectedly")
		}
		return u
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

// runEngineContract checks the get/set/observe behavior every engine must share.
func runEngineContract(t *testing.T, e Engine) {
	t.Helper()
	ctx := context.Background()

	if _, present, err := e.Get(ctx, "missing"); err != nil || present {
		t.Fatalf("expected absent key, got present=%v err=%v", present, err)
	}

	if err := e.Set(ctx, "k", []byte("v1"), true); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, present, err := e.Get(ctx, "k")
	if err != nil || !present || !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("expected v1, got %q present=%v err=%v", v, present, err)
	}

	obsCtx, cancel := context.WithCancel(ctx)
	ch, err := e.Observe(obsCtx, "k")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}

	first := recvUpdate(t, ch)
	if !first.Present || !bytes.Equal(first.Value, []byte("v1")) {
		t.Fatalf("expected current value first, got %+v", first)
	}

	if err := e.Set(ctx, "k", []byte("v2"), true); err != nil {
		t.Fatalf("set v2: %v", err)
	}
	second := recvUpdate(t, ch)
	if !second.Present || !bytes.Equal(second.Value, []byte("v2")) {
		t.Fatalf("expected v2 update, got %+v", second)
	}

	if err := e.Set(ctx, "k", nil, false); err != nil {
		t.Fatalf("clear: %v", err)
	}
	third := recvUpdate(t, ch)
	if third.Present {
		t.Fatalf("expected absent update after clear, got %+v", third)
	}
	if _, present, _ := e.Get(ctx, "k"); present {
		t.Fatal("expected key cleared")
	}

	if err := e.Set(ctx, "other", []byte("x"), true); err != nil {
		t.Fatalf("set other: %v", err)
	}
	select {
	case u := <-ch:
		t.Fatalf("unexpected update for unrelated key: %+v", u)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("observe channel not closed after cancel")
		}
	}
}

func TestMemoryEngineContract(t *testing.T) {
	runEngineContract(t, NewMemoryEngine())
}

func TestMemoryEngineObserveAbsentKeyPushesAbsent(t *testing.T) {
	e := NewMemoryEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := e.Observe(ctx, "nothing")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if u := recvUpdate(t, ch); u.Present {
		t.Fatalf("expected absent initial update, got %+v", u)
	}
}

func TestMemoryEngineSlowObserverSeesLatestValue(t *testing.T) {
	e := NewMemoryEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := e.Observe(ctx, "k")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	for _, v := range []string{"a", "b", "c"} {
		if err := e.Set(ctx, "k", []byte(v), true); err != nil {
			t.Fatalf("set %s: %v", v, err)
		}
	}

	u := recvUpdate(t, ch)
	if string(u.Value) != "c" {
		t.Fatalf("expected conflated latest value c, got %q", u.Value)
	}
}

func TestMemoryEngineCopiesValues(t *testing.T) {
	e := NewMemoryEngine()
	ctx := context.Background()

	buf := []byte("abc")
	if err := e.Set(ctx, "k", buf, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[0] = 'x'

	got, _, _ := e.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value mutated through caller slice: %q", got)
	}
	got[1] = 'y'
	again, _, _ := e.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}

func TestMemoryEngineCloseEndsObserversAndRejectsCalls(t *testing.T) {
	e := NewMemoryEngine()
	ch, err := e.Observe(context.Background(), "k")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	recvUpdate(t, ch)

	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected observe channel closed")
	}
	if err := e.Set(context.Background(), "k", []byte("v"), true); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestLoadReportsCorruptValue(t *testing.T) {
	e := NewMemoryEngine()
	ctx := context.Background()
	key := NewKey[int]("n", failingCodec{})

	if err := e.Set(ctx, "n", []byte("garbage"), true); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, present, err := Load(ctx, e, key)
	if present || !errors.Is(err, ErrCorruptValue) {
		t.Fatalf("expected corrupt value, got present=%v err=%v", present, err)
	}

	_, ok, corrupt := DecodeUpdate(key, Update{Value: []byte("garbage"), Present: true})
	if ok || !corrupt {
		t.Fatalf("expected corrupt update, got ok=%v corrupt=%v", ok, corrupt)
	}
}

func TestStoreLoadClearRoundTrip(t *testing.T) {
	e := NewMemoryEngine()
	ctx := context.Background()
	key := NewKey[string]("secret.s1", StringCodec{})

	if err := Store(ctx, e, key, "value"); err != nil {
		t.Fatalf("store: %v", err)
	}
	v, present, err := Load(ctx, e, key)
	if err != nil || !present || v != "value" {
		t.Fatalf("expected value, got %q present=%v err=%v", v, present, err)
	}
	if err := Clear(ctx, e, key); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, present, _ := Load(ctx, e, key); present {
		t.Fatal("expected cleared key")
	}
}

type failingCodec struct{}

func (failingCodec) Encode(int) ([]byte, error) { return nil, errors.New("no encode") }
func (failingCodec) Decode([]byte) (int, error) { return 0, errors.New("no decode") }
