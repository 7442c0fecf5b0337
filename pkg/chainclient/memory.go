package chainclient

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/keetanet/metadata-resolver/pkg/rerrors"
)

// InMemoryChainClient is a map-backed Client, grounded on the teacher's
// MockDataBackend test fixture: no mocking framework, just a small
// concrete type satisfying the adapter interface, safe for concurrent
// lookups.
type InMemoryChainClient struct {
	mu       sync.RWMutex
	accounts map[string]string // public key string -> metadata base64
}

// NewInMemoryChainClient creates an empty fixture chain client.
func NewInMemoryChainClient() *InMemoryChainClient {
	return &InMemoryChainClient{accounts: make(map[string]string)}
}

// SetMetadata installs the Base64-encoded metadata for a public key
// string, for use by tests setting up fixtures.
func (c *InMemoryChainClient) SetMetadata(publicKey, metadataBase64 string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[publicKey] = metadataBase64
}

// SetMetadataJSON base64-encodes raw JSON and installs it for publicKey,
// a convenience for tests building fixture metadata documents.
func (c *InMemoryChainClient) SetMetadataJSON(publicKey string, rawJSON string) {
	c.SetMetadata(publicKey, base64.StdEncoding.EncodeToString([]byte(rawJSON)))
}

// ParsePublicKeyString accepts any non-empty string as a valid public
// key; the fixture has no notion of key-format validity beyond that.
func (c *InMemoryChainClient) ParsePublicKeyString(s string) (Account, bool) {
	if s == "" {
		return nil, false
	}
	return simpleAccount(s), true
}

// FetchAccountMetadata returns the installed metadata for account, or
// an empty string if none was set (an account with no published
// metadata, per spec §4.1 "if the decoded text is empty, return "").
func (c *InMemoryChainClient) FetchAccountMetadata(ctx context.Context, account Account) (string, error) {
	if account == nil {
		return "", rerrors.New(rerrors.CodeInvalidPublicKey, "nil account")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accounts[account.String()], nil
}
