package urlreader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keetanet/metadata-resolver/pkg/chainclient"
	"github.com/keetanet/metadata-resolver/pkg/rerrors"
)

func TestReadRawKeetanetRoundTrip(t *testing.T) {
	chain := chainclient.NewInMemoryChainClient()
	chain.SetMetadataJSON("pubkey-a", `{"version":1}`)

	raw, err := ReadRaw(context.Background(), "keetanet://pubkey-a/metadata", chain, Options{})
	if err != nil {
		t.Fatalf("ReadRaw error: %v", err)
	}
	if string(raw) != `{"version":1}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestReadRawKeetanetWrongPath(t *testing.T) {
	chain := chainclient.NewInMemoryChainClient()
	_, err := ReadRaw(context.Background(), "keetanet://pubkey-a/balance", chain, Options{})
	if !rerrors.HasCode(err, rerrors.CodeUnsupportedPath) {
		t.Fatalf("expected CodeUnsupportedPath, got %v", err)
	}
}

func TestReadRawKeetanetEmptyAccount(t *testing.T) {
	chain := chainclient.NewInMemoryChainClient()
	raw, err := ReadRaw(context.Background(), "keetanet://unpublished/metadata", chain, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `""` {
		t.Fatalf("raw = %s, want empty-string sentinel", raw)
	}
}

func TestReadRawUnsupportedScheme(t *testing.T) {
	chain := chainclient.NewInMemoryChainClient()
	_, err := ReadRaw(context.Background(), "ftp://host/metadata", chain, Options{})
	if !rerrors.HasCode(err, rerrors.CodeUnsupportedProtocol) {
		t.Fatalf("expected CodeUnsupportedProtocol, got %v", err)
	}
}

func TestReadRawHTTPSOK(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"version":1}`))
	}))
	defer srv.Close()

	raw, err := ReadRaw(context.Background(), srv.URL, nil, Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("ReadRaw error: %v", err)
	}
	if string(raw) != `{"version":1}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestReadRawHTTPSNoContent(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	raw, err := ReadRaw(context.Background(), srv.URL, nil, Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("ReadRaw error: %v", err)
	}
	if string(raw) != `{}` {
		t.Fatalf("raw = %s, want {}", raw)
	}
}

func TestReadRawHTTPSFailureStatus(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := ReadRaw(context.Background(), srv.URL, nil, Options{HTTPClient: srv.Client()})
	if !rerrors.HasCode(err, rerrors.CodeTransport) {
		t.Fatalf("expected CodeTransport, got %v", err)
	}
}

func TestReadRawHTTPSOversizeBody(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		padding := make([]byte, 64)
		for i := range padding {
			padding[i] = 'x'
		}
		w.Write([]byte(`{"padding":"` + string(padding) + `"}`))
	}))
	defer srv.Close()

	_, err := ReadRaw(context.Background(), srv.URL, nil, Options{MaxBodyBytes: 8, HTTPClient: srv.Client()})
	if !rerrors.HasCode(err, rerrors.CodeTransport) {
		t.Fatalf("expected CodeTransport for oversize body, got %v", err)
	}
}

func TestReadRawHTTPSUnreachable(t *testing.T) {
	_, err := ReadRaw(context.Background(), "https://127.0.0.1:1/metadata", nil, Options{})
	if !rerrors.HasCode(err, rerrors.CodeTransport) {
		t.Fatalf("expected CodeTransport for unreachable host, got %v", err)
	}
}
