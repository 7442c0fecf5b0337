// Package canon canonicalizes the inputs that cross the search-criteria
// boundary (spec §4.7, §6): currency codes, country codes, token
// identifiers, and asset-location identifiers. Canonical forms are the
// strings used both as match subjects inside the resolver and as
// cache-keyable forms at the service-client layer above it.
//
// No example repo in the corpus imports an ISO currency/country code
// library, so these are embedded Go tables rather than a dependency —
// see DESIGN.md.
package canon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/keetanet/metadata-resolver/pkg/rerrors"
)

// iso4217 is the set of recognized ISO-4217 alpha-3 currency codes.
// Not exhaustive of every currency ever minted; covers the majors and
// the regional currencies this network's providers are expected to
// quote.
var iso4217 = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CHF": true,
	"CAD": true, "AUD": true, "NZD": true, "CNY": true, "HKD": true,
	"SGD": true, "MXN": true, "BRL": true, "ZAR": true, "INR": true,
	"KRW": true, "SEK": true, "NOK": true, "DKK": true, "PLN": true,
	"TRY": true, "AED": true, "SAR": true, "ILS": true, "THB": true,
	"IDR": true, "MYR": true, "PHP": true, "VND": true, "ARS": true,
	"CLP": true, "COP": true, "PEN": true, "NGN": true, "KES": true,
	"EGP": true, "PKR": true, "BDT": true, "RUB": true, "UAH": true,
}

// iso3166 is the set of recognized ISO-3166-1 alpha-2 country codes.
var iso3166 = map[string]bool{
	"US": true, "CA": true, "MX": true, "GB": true, "FR": true,
	"DE": true, "ES": true, "IT": true, "PT": true, "NL": true,
	"BE": true, "CH": true, "AT": true, "SE": true, "NO": true,
	"DK": true, "FI": true, "PL": true, "IE": true, "LU": true,
	"JP": true, "CN": true, "HK": true, "SG": true, "KR": true,
	"IN": true, "ID": true, "MY": true, "PH": true, "VN": true,
	"TH": true, "AU": true, "NZ": true, "BR": true, "AR": true,
	"CL": true, "CO": true, "PE": true, "ZA": true, "NG": true,
	"KE": true, "EG": true, "AE": true, "SA": true, "IL": true,
	"TR": true, "RU": true, "UA": true, "PK": true, "BD": true,
}

// AccountKind enumerates bank-account rail kinds (spec §4.7).
type AccountKind string

const (
	AccountKindUS         AccountKind = "us"
	AccountKindIBANSwift  AccountKind = "iban-swift"
	AccountKindCLABE      AccountKind = "clabe"
	AccountKindPIX        AccountKind = "pix"
)

var validAccountKinds = map[AccountKind]bool{
	AccountKindUS:        true,
	AccountKindIBANSwift: true,
	AccountKindCLABE:     true,
	AccountKindPIX:       true,
}

// Currency canonicalizes a user-supplied currency input to its ISO-4217
// alpha code, or returns it unchanged (upper-cased) if it is a
// "$"-prefixed tokenized currency, which is opaque and matched only by
// literal equality (spec §6).
func Currency(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "$") {
		return "$" + strings.ToUpper(strings.TrimPrefix(trimmed, "$")), nil
	}
	code := strings.ToUpper(trimmed)
	if !iso4217[code] {
		return "", rerrors.Newf(rerrors.CodeWrongKind, "unrecognized currency code %q", input)
	}
	return code, nil
}

// Country canonicalizes a user-supplied country input to its
// ISO-3166-1 alpha-2 code.
func Country(input string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(input))
	if !iso3166[code] {
		return "", rerrors.Newf(rerrors.CodeWrongKind, "unrecognized country code %q", input)
	}
	return code, nil
}

// Token canonicalizes a token identifier to its public-key string. The
// resolver treats tokens as opaque identifiers; canonicalization here
// is limited to trimming incidental whitespace so equality comparisons
// aren't foiled by formatting.
func Token(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", rerrors.New(rerrors.CodeWrongKind, "empty token identifier")
	}
	return trimmed, nil
}

// ChainLocation canonicalizes a chain-network asset-movement location to
// "chain:<kind>:<id>" where id is a decimal u64. Returns an error if id
// overflows 64 bits (spec §9 open question).
func ChainLocation(kind string, id string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != "keeta" && kind != "evm" {
		return "", rerrors.Newf(rerrors.CodeWrongKind, "unrecognized chain kind %q", kind)
	}
	if _, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64); err != nil {
		return "", rerrors.Wrapf(err, rerrors.CodeWrongKind, "invalid chain id %q", id)
	}
	return fmt.Sprintf("chain:%s:%s", kind, strings.TrimSpace(id)), nil
}

// BankAccountLocation canonicalizes a bank-account asset-movement
// location to "bank-account:<kind>".
func BankAccountLocation(kind string) (string, error) {
	k := AccountKind(strings.ToLower(strings.TrimSpace(kind)))
	if !validAccountKinds[k] {
		return "", rerrors.Newf(rerrors.CodeWrongKind, "unrecognized account kind %q", kind)
	}
	return fmt.Sprintf("bank-account:%s", k), nil
}

// Location re-canonicalizes an already-canonical location string
// (idempotence, spec P8): parses it back apart and re-renders it.
func Location(input string) (string, error) {
	parts := strings.SplitN(input, ":", 3)
	switch {
	case len(parts) == 3 && parts[0] == "chain":
		return ChainLocation(parts[1], parts[2])
	case len(parts) == 2 && parts[0] == "bank-account":
		return BankAccountLocation(parts[1])
	default:
		return "", rerrors.Newf(rerrors.CodeWrongKind, "unrecognized location %q", input)
	}
}
