// Package urlreader implements the URL Reader (C1): a stateless fetch
// of one raw metadata document from a keetanet:// or https:// URL. It
// knows nothing of graph structure, caching, or cycle detection — those
// belong to pkg/node.
package urlreader

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/keetanet/metadata-resolver/pkg/chainclient"
	"github.com/keetanet/metadata-resolver/pkg/rerrors"
)

// emptyString is the JSON encoding of the empty-string sentinel (spec
// §4.1: an unparseable public key, or an account with no published
// metadata, reads back as "").
var emptyString = json.RawMessage(`""`)

// emptyObject is the JSON encoding of {} (spec §3: an HTTPS 204 reads
// back as an empty object).
var emptyObject = json.RawMessage(`{}`)

// Options bounds a single ReadRaw call.
type Options struct {
	MaxBodyBytes int64
	HTTPTimeout  time.Duration
	HTTPClient   *http.Client // optional; a default client is used if nil
}

// ReadRaw fetches the raw metadata document at rawURL, dispatching on
// scheme. It never consults a cache or seen-set.
func ReadRaw(ctx context.Context, rawURL string, chain chainclient.Client, opts Options) (json.RawMessage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, rerrors.Wrapf(err, rerrors.CodeUnsupportedProtocol, "invalid URL %q", rawURL)
	}

	switch u.Scheme {
	case "keetanet":
		return readKeetanet(ctx, u, chain)
	case "https":
		return readHTTPS(ctx, u, opts)
	default:
		return nil, rerrors.Newf(rerrors.CodeUnsupportedProtocol, "unsupported URL scheme %q", u.Scheme).
			WithContext("url", rawURL)
	}
}

func readKeetanet(ctx context.Context, u *url.URL, chain chainclient.Client) (json.RawMessage, error) {
	if u.Path != "/metadata" {
		return nil, rerrors.Newf(rerrors.CodeUnsupportedPath, "unsupported keetanet path %q", u.Path).
			WithContext("url", u.String())
	}

	account, ok := chain.ParsePublicKeyString(u.Host)
	if !ok {
		// Deliberately non-fatal: a broken reference must not abort the
		// enclosing evaluation (spec §4.1).
		return emptyString, nil
	}

	metadataB64, err := chain.FetchAccountMetadata(ctx, account)
	if err != nil {
		return nil, rerrors.Wrapf(err, rerrors.CodeTransport, "fetching account metadata for %s", u.Host)
	}

	if metadataB64 == "" {
		return emptyString, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(metadataB64)
	if err != nil {
		return nil, rerrors.Wrapf(err, rerrors.CodeTransport, "decoding base64 metadata for %s", u.Host)
	}

	if len(decoded) == 0 {
		return emptyString, nil
	}

	if !json.Valid(decoded) {
		return nil, rerrors.Newf(rerrors.CodeTransport, "malformed metadata JSON for %s", u.Host)
	}

	return json.RawMessage(decoded), nil
}

func readHTTPS(ctx context.Context, u *url.URL, opts Options) (json.RawMessage, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if opts.HTTPTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.HTTPTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, rerrors.Wrapf(err, rerrors.CodeTransport, "building request for %s", u.String())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, rerrors.Wrapf(err, rerrors.CodeTransport, "fetching %s", u.String())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return emptyObject, nil
	case http.StatusOK:
		max := opts.MaxBodyBytes
		if max <= 0 {
			max = 1 << 20
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, max+1))
		if err != nil {
			return nil, rerrors.Wrapf(err, rerrors.CodeTransport, "reading body from %s", u.String())
		}
		if int64(len(body)) > max {
			return nil, rerrors.Newf(rerrors.CodeTransport, "response body from %s exceeds %d bytes", u.String(), max).
				WithContext("reason", "body_too_large")
		}
		if !json.Valid(body) {
			return nil, rerrors.Newf(rerrors.CodeTransport, "malformed JSON from %s", u.String())
		}
		return json.RawMessage(body), nil
	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, rerrors.Newf(rerrors.CodeTransport, "unexpected status %d from %s", resp.StatusCode, u.String()).
			WithContext("status", resp.StatusCode).
			WithDetailsf("%s", string(text))
	}
}
