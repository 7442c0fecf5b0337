// Package chainclient defines the narrow adapter (C2) through which the
// URL Reader retrieves an account's stored metadata. The resolver never
// depends on a full chain SDK; it depends only on this interface, whose
// concrete binding is injected by whoever constructs a resolver.
package chainclient

import "context"

// Account is an opaque handle to a parsed public key, returned by
// ParsePublicKeyString and passed back into FetchAccountMetadata.
type Account interface {
	String() string
}

// Client is the adapter the URL Reader uses to resolve a keetanet://
// account URL's stored metadata.
type Client interface {
	// ParsePublicKeyString parses s as a public-key string. ok is false
	// if s does not parse, in which case the URL Reader treats the
	// account as unreadable (spec §4.1: a non-fatal empty-string read,
	// not an error).
	ParsePublicKeyString(s string) (account Account, ok bool)

	// FetchAccountMetadata returns the account's stored metadata field,
	// Base64-encoded, as published on chain.
	FetchAccountMetadata(ctx context.Context, account Account) (metadataBase64 string, err error)
}

type simpleAccount string

func (a simpleAccount) String() string { return string(a) }
