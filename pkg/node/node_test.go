package node

import (
	"context"
	"testing"
	"time"

	"github.com/keetanet/metadata-resolver/pkg/chainclient"
	"github.com/keetanet/metadata-resolver/pkg/lazy"
	"github.com/keetanet/metadata-resolver/pkg/rcache"
)

func testOptions() Options {
	return Options{
		PositiveTTL:      time.Minute,
		NegativeTTL:      time.Second,
		MaxHTTPBodyBytes: 1 << 20,
		HTTPTimeout:      5 * time.Second,
	}
}

func TestValuePlainDocument(t *testing.T) {
	chain := chainclient.NewInMemoryChainClient()
	chain.SetMetadataJSON("root", `{"a":1,"b":"s"}`)

	n := NewRoot("keetanet://root/metadata", rcache.New(10), chain, NewStats(), nil, testOptions())
	forced, err := n.Value(context.Background(), lazy.KindObject)
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	bVal, ok := forced.Field("b")
	if !ok {
		t.Fatal("expected field b")
	}
	bForced, err := bVal.By(lazy.KindString)
	if err != nil {
		t.Fatalf("force b: %v", err)
	}
	s, _ := bForced.String()
	if s != "s" {
		t.Fatalf("b = %q, want s", s)
	}
}

func TestExternalReferenceIndirection(t *testing.T) {
	// S2: root references account B via an external ref; forcing the
	// field must transparently resolve to B's own document with exactly
	// one read of B's URL.
	chain := chainclient.NewInMemoryChainClient()
	chain.SetMetadataJSON("B", `{"operations":{"createAccount":"https://x.example/createAccount"},"countryCodes":["US"],"currencyCodes":["USD"]}`)
	chain.SetMetadataJSON("root", `{"keeta_extref":{"external":"`+ExternalRefMagic+`","url":"keetanet://B/metadata"}}`)

	stats := NewStats()
	n := NewRoot("keetanet://root/metadata", rcache.New(10), chain, stats, nil, testOptions())

	forced, err := n.Value(context.Background(), lazy.KindObject)
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	refVal, ok := forced.Field("keeta_extref")
	if !ok {
		t.Fatal("expected field keeta_extref")
	}
	refForced, err := refVal.By(lazy.KindObject)
	if err != nil {
		t.Fatalf("force external ref: %v", err)
	}
	opsVal, ok := refForced.Field("operations")
	if !ok {
		t.Fatal("expected operations field on resolved external ref")
	}
	opsForced, err := opsVal.By(lazy.KindObject)
	if err != nil {
		t.Fatalf("force operations: %v", err)
	}
	if _, ok := opsForced.Field("createAccount"); !ok {
		t.Fatal("expected createAccount operation from B's document")
	}

	snap := stats.Snapshot()
	if snap.KeetanetReads != 2 {
		t.Fatalf("keetanet reads = %d, want 2 (root + B)", snap.KeetanetReads)
	}
}

func TestSelfCycleShortCircuits(t *testing.T) {
	// S3: account L's metadata is an external ref pointing at itself.
	// Forcing it must not loop forever and must resolve to an
	// empty/absent value.
	chain := chainclient.NewInMemoryChainClient()
	chain.SetMetadataJSON("L", `{"external":"`+ExternalRefMagic+`","url":"keetanet://L/metadata"}`)

	n := NewRoot("keetanet://L/metadata", rcache.New(10), chain, NewStats(), nil, testOptions())

	done := make(chan struct{})
	go func() {
		_, _ = n.Value(context.Background(), lazy.KindAny)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("self-cycle did not terminate")
	}
}

func TestCachedSecondReadIsHit(t *testing.T) {
	chain := chainclient.NewInMemoryChainClient()
	chain.SetMetadataJSON("root", `{"a":1}`)

	cache := rcache.New(10)
	stats := NewStats()

	n1 := NewRoot("keetanet://root/metadata", cache, chain, stats, nil, testOptions())
	if _, err := n1.Value(context.Background(), lazy.KindObject); err != nil {
		t.Fatalf("first Value() error: %v", err)
	}

	n2 := NewRoot("keetanet://root/metadata", cache, chain, stats, nil, testOptions())
	if _, err := n2.Value(context.Background(), lazy.KindObject); err != nil {
		t.Fatalf("second Value() error: %v", err)
	}

	snap := stats.Snapshot()
	if snap.CacheHits == 0 {
		t.Fatal("expected at least one cache hit on the second lookup")
	}
	if snap.KeetanetReads != 1 {
		t.Fatalf("keetanet reads = %d, want 1 (only the first lookup should fetch)", snap.KeetanetReads)
	}
}
