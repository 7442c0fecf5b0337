package rcache

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestPutSuccessAndGet(t *testing.T) {
	c := New(10)
	payload := json.RawMessage(`{"a":1}`)
	c.PutSuccess("keetanet://x/metadata", payload, time.Minute)

	entry, ok := c.Get("keetanet://x/metadata")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !entry.Pass {
		t.Fatal("expected Pass entry")
	}
	if string(entry.Payload) != string(payload) {
		t.Fatalf("payload = %s, want %s", entry.Payload, payload)
	}
}

func TestPutFailureAndGet(t *testing.T) {
	c := New(10)
	wantErr := errors.New("transport failure")
	c.PutFailure("https://bad.example/metadata", wantErr, time.Minute)

	entry, ok := c.Get("https://bad.example/metadata")
	if !ok {
		t.Fatal("expected cache hit for negative entry")
	}
	if entry.Pass {
		t.Fatal("expected a failure entry")
	}
	if entry.Err != wantErr {
		t.Fatalf("err = %v, want %v", entry.Err, wantErr)
	}
}

func TestGetExpired(t *testing.T) {
	c := New(10)
	c.PutSuccess("keetanet://x/metadata", json.RawMessage(`1`), -time.Second)

	if _, ok := c.Get("keetanet://x/metadata"); ok {
		t.Fatal("expected expired entry to be absent")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted, Len() = %d", c.Len())
	}
}

func TestClearAndDelete(t *testing.T) {
	c := New(10)
	c.PutSuccess("a", json.RawMessage(`1`), time.Minute)
	c.PutSuccess("b", json.RawMessage(`2`), time.Minute)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted entry should be absent")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("undeleted entry should remain")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestNewZeroMaxEntriesDefaults(t *testing.T) {
	c := New(0)
	c.PutSuccess("a", json.RawMessage(`1`), time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("cache constructed with maxEntries=0 should still work")
	}
}
