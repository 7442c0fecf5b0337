// Package criteria implements the Search Criteria Evaluator (C7, spec
// §4.7): per-category match predicates over a forced provider
// descriptor, using pkg/canon for canonicalization and pkg/lazy to force
// only the fields a given predicate actually needs.
package criteria

import (
	"context"

	"github.com/keetanet/metadata-resolver/pkg/canon"
	"github.com/keetanet/metadata-resolver/pkg/lazy"
	"github.com/keetanet/metadata-resolver/pkg/rerrors"
)

// Category identifies one of the service categories a root document may
// advertise under "services".
type Category string

const (
	CategoryBanking       Category = "banking"
	CategoryKYC           Category = "kyc"
	CategoryFX            Category = "fx"
	CategoryAssetMovement Category = "assetMovement"
	CategoryOrderMatcher  Category = "orderMatcher"
	CategoryUsername      Category = "username"
)

// Criteria is the caller-supplied match filter for a lookup. Every field
// is optional; an absent or empty list matches vacuously (spec §4.7
// "Criteria with an empty list match every provider").
type Criteria struct {
	CurrencyCodes      []string
	CountryCodes       []string
	KYCProviders       []string
	InputCurrencyCode  string
	OutputCurrencyCode string
	Asset              string
	From               string
	To                 string
	Rail               []string
	Base               string
	Quote              string
}

// Matcher evaluates one category's predicate against a forced provider
// descriptor.
type Matcher func(ctx context.Context, provider lazy.Forced, crit Criteria) (bool, error)

var matchers = map[Category]Matcher{
	CategoryBanking:       matchBanking,
	CategoryKYC:           matchKYC,
	CategoryFX:            matchFX,
	CategoryAssetMovement: matchAssetMovement,
	CategoryOrderMatcher:  matchOrderMatcher,
	CategoryUsername:      matchUsername,
}

// Match dispatches to the matcher registered for category, failing fast
// with rerrors.CodeNotImplemented for any other category (spec §4.7
// "Unknown categories fail fast with ErrNotImplemented").
func Match(ctx context.Context, category Category, provider lazy.Forced, crit Criteria) (bool, error) {
	m, ok := matchers[category]
	if !ok {
		return false, rerrors.Newf(rerrors.CodeNotImplemented, "category %q is not implemented", category)
	}
	return m(ctx, provider, crit)
}

// stringList forces a named field on provider to a string array,
// reporting a missing field as present=false (each caller decides what
// absence means) and a present non-array/non-string-element field as a
// schema error.
func stringList(provider lazy.Forced, field string) ([]string, bool, error) {
	v, ok := provider.Field(field)
	if !ok {
		return nil, false, nil
	}
	forced, err := v.By(lazy.KindArray)
	if err != nil {
		return nil, true, err
	}
	out := make([]string, 0, len(forced.Array()))
	for _, el := range forced.Array() {
		s, err := el.By(lazy.KindString)
		if err != nil {
			return nil, true, err
		}
		str, err := s.String()
		if err != nil {
			return nil, true, err
		}
		out = append(out, str)
	}
	return out, true, nil
}

func containsCanonCurrency(list []string, want string) (bool, error) {
	for _, c := range list {
		got, err := canon.Currency(c)
		if err != nil {
			continue
		}
		if got == want {
			return true, nil
		}
	}
	return false, nil
}

func containsCanonCountry(list []string, want string) bool {
	for _, c := range list {
		got, err := canon.Country(c)
		if err == nil && got == want {
			return true
		}
	}
	return false
}

func containsExact(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// requireOperations reports whether provider has a (forceable) "operations"
// field, per the banking/kyc requirement that a provider expose operations.
func requireOperations(provider lazy.Forced) error {
	v, ok := provider.Field("operations")
	if !ok {
		return rerrors.New(rerrors.CodeProviderInvalid, "provider has no operations")
	}
	if _, err := v.By(lazy.KindObject); err != nil {
		return rerrors.Wrap(err, rerrors.CodeProviderInvalid, "provider operations is not an object")
	}
	return nil
}

// matchBanking implements the banking row of spec §4.7's table.
func matchBanking(ctx context.Context, provider lazy.Forced, crit Criteria) (bool, error) {
	if err := requireOperations(provider); err != nil {
		return false, err
	}

	if len(crit.CurrencyCodes) > 0 {
		declared, present, err := stringList(provider, "currencyCodes")
		if err != nil {
			return false, err
		}
		if !present {
			return false, nil
		}
		for _, want := range crit.CurrencyCodes {
			wantCanon, err := canon.Currency(want)
			if err != nil {
				return false, nil
			}
			ok, err := containsCanonCurrency(declared, wantCanon)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}

	if len(crit.CountryCodes) > 0 {
		declared, present, err := stringList(provider, "countryCodes")
		if err != nil {
			return false, err
		}
		if !present {
			return false, nil
		}
		for _, want := range crit.CountryCodes {
			wantCanon, err := canon.Country(want)
			if err != nil {
				return false, nil
			}
			if !containsCanonCountry(declared, wantCanon) {
				return false, nil
			}
		}
	}

	if len(crit.KYCProviders) > 0 {
		declared, present, err := stringList(provider, "kycProviders")
		if err != nil {
			return false, err
		}
		if !present {
			return false, nil
		}
		for _, want := range crit.KYCProviders {
			if !containsExact(declared, want) {
				return false, nil
			}
		}
	}

	return true, nil
}

// matchKYC implements the kyc row: countryCodes absent means "matches
// anything", present means all-in like banking.
func matchKYC(ctx context.Context, provider lazy.Forced, crit Criteria) (bool, error) {
	if err := requireOperations(provider); err != nil {
		return false, err
	}

	declared, present, err := stringList(provider, "countryCodes")
	if err != nil {
		return false, err
	}
	if !present {
		return true, nil
	}
	for _, want := range crit.CountryCodes {
		wantCanon, err := canon.Country(want)
		if err != nil {
			return false, nil
		}
		if !containsCanonCountry(declared, wantCanon) {
			return false, nil
		}
	}
	return true, nil
}

// matchFX implements the fx row: the provider's "from" list entries each
// carry currencyCodes and a to list; a match needs one entry whose
// currencyCodes contains the input and whose to contains the output.
func matchFX(ctx context.Context, provider lazy.Forced, crit Criteria) (bool, error) {
	if err := requireOperations(provider); err != nil {
		return false, err
	}

	fromField, ok := provider.Field("from")
	if !ok {
		return false, nil
	}
	fromForced, err := fromField.By(lazy.KindArray)
	if err != nil {
		return false, err
	}

	wantIn, err := canon.Currency(crit.InputCurrencyCode)
	if err != nil {
		return false, nil
	}
	wantOut, err := canon.Currency(crit.OutputCurrencyCode)
	if err != nil {
		return false, nil
	}

	for _, entryVal := range fromForced.Array() {
		entry, err := entryVal.By(lazy.KindObject)
		if err != nil {
			continue
		}
		currencies, present, err := stringList(entry, "currencyCodes")
		if err != nil || !present {
			continue
		}
		inOK, err := containsCanonCurrency(currencies, wantIn)
		if err != nil || !inOK {
			continue
		}
		toList, present, err := stringList(entry, "to")
		if err != nil || !present {
			continue
		}
		outOK, err := containsCanonCurrency(toList, wantOut)
		if err != nil {
			continue
		}
		if outOK {
			return true, nil
		}
	}
	return false, nil
}

func locationsIntersect(paths []string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		wc, err := canon.Location(w)
		if err != nil {
			continue
		}
		if containsExact(paths, wc) {
			return true
		}
	}
	return false
}

// matchAssetMovement implements the assetMovement row: the provider's
// supportedAssets[*].paths[*] must carry a pair containing the asset and
// satisfy optional from/to/rail constraints.
func matchAssetMovement(ctx context.Context, provider lazy.Forced, crit Criteria) (bool, error) {
	assetsField, ok := provider.Field("supportedAssets")
	if !ok {
		return false, nil
	}
	assetsForced, err := assetsField.By(lazy.KindArray)
	if err != nil {
		return false, err
	}

	wantAsset, err := canon.Location(crit.Asset)
	if err != nil {
		return false, nil
	}

	for _, assetVal := range assetsForced.Array() {
		asset, err := assetVal.By(lazy.KindObject)
		if err != nil {
			continue
		}
		pathsField, ok := asset.Field("paths")
		if !ok {
			continue
		}
		pathsForced, err := pathsField.By(lazy.KindArray)
		if err != nil {
			continue
		}
		for _, pathVal := range pathsForced.Array() {
			path, err := pathVal.By(lazy.KindObject)
			if err != nil {
				continue
			}
			pairList, present, err := stringList(path, "pair")
			if err != nil || !present {
				continue
			}
			if !containsExact(pairList, wantAsset) {
				continue
			}

			fromPaths, _, _ := stringList(path, "from")
			toPaths, _, _ := stringList(path, "to")
			if crit.From != "" && !locationsIntersect(fromPaths, []string{crit.From}) {
				continue
			}
			if crit.To != "" && !locationsIntersect(toPaths, []string{crit.To}) {
				continue
			}

			if len(crit.Rail) > 0 {
				rails, present, err := stringList(path, "rails")
				if err != nil || !present {
					continue
				}
				if !railsIntersect(rails, crit.Rail) {
					continue
				}
			}

			return true, nil
		}
	}
	return false, nil
}

// railsIntersect reports whether any wanted rail name appears in
// declared, comparing raw strings exactly (no canonicalization).
func railsIntersect(declared []string, want []string) bool {
	for _, w := range want {
		if containsExact(declared, w) {
			return true
		}
	}
	return false
}

// matchOrderMatcher implements the orderMatcher row: the provider's
// pairs list must list the base and/or quote token when given.
func matchOrderMatcher(ctx context.Context, provider lazy.Forced, crit Criteria) (bool, error) {
	pairs, present, err := stringList(provider, "pairs")
	if err != nil {
		return false, err
	}
	if !present {
		return false, nil
	}

	if crit.Base != "" {
		base, err := canon.Token(crit.Base)
		if err != nil {
			return false, nil
		}
		if !containsExact(pairs, base) {
			return false, nil
		}
	}
	if crit.Quote != "" {
		quote, err := canon.Token(crit.Quote)
		if err != nil {
			return false, nil
		}
		if !containsExact(pairs, quote) {
			return false, nil
		}
	}
	return true, nil
}

// matchUsername implements the username row: a resolve operation is
// required, nothing else is category-specific.
func matchUsername(ctx context.Context, provider lazy.Forced, crit Criteria) (bool, error) {
	opsField, ok := provider.Field("operations")
	if !ok {
		return false, rerrors.New(rerrors.CodeProviderInvalid, "provider has no operations")
	}
	ops, err := opsField.By(lazy.KindObject)
	if err != nil {
		return false, rerrors.Wrap(err, rerrors.CodeProviderInvalid, "provider operations is not an object")
	}
	if _, ok := ops.Field("resolve"); !ok {
		return false, rerrors.New(rerrors.CodeProviderInvalid, "provider has no resolve operation")
	}
	return true, nil
}
