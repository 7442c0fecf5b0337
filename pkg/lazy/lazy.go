// Package lazy implements the Lazy Value Protocol (spec §4.5, C5): a
// uniform "ask for the value of a field, coerced to a kind" contract
// over heterogeneous JSON, realized as a tagged sum type plus
// kind-asserting accessors. Forcing one field never forces its
// siblings: an Object's children are returned as unforced Values, and
// an external reference among them is only followed when By is called
// on that child.
package lazy

import (
	"encoding/json"

	"github.com/keetanet/metadata-resolver/pkg/rerrors"
)

// Kind identifies the shape a caller expects a Value to have.
type Kind string

const (
	KindAny       Kind = "any"
	KindObject    Kind = "object"
	KindArray     Kind = "array"
	KindPrimitive Kind = "primitive"
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindBoolean   Kind = "boolean"
)

// actualKind classifies a decoded JSON value for error messages.
func actualKind(v any) Kind {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]json.RawMessage, map[string]any:
		return KindObject
	case []json.RawMessage, []any:
		return KindArray
	case string:
		return KindString
	case float64:
		return KindNumber
	case bool:
		return KindBoolean
	default:
		return KindPrimitive
	}
}

// Value is a lazily-forceable JSON value. A Value is produced by a
// Resolver (the Metadata Node in pkg/node); By walks the document only
// as deep as asked.
type Value struct {
	// raw is the undecoded JSON for this node. It is nil for a
	// forwarding Value (an external-reference field), in which case
	// forward is set instead.
	raw json.RawMessage

	// forward, when non-nil, is called to obtain the Value this one
	// stands for — used for external-reference fields (spec invariant
	// 3: resolveValue(extRef) == resolveValue(readURL(extRef.url))).
	forward func() (Value, error)

	origin string // URL this value's document came from, for logging only

	// wrap, when non-nil, builds the Value for an object/array child
	// instead of a plain New. pkg/node uses this to intercept each
	// child at the moment it is forced and substitute a forwarding
	// Value when that child turns out to be an external reference —
	// recursively, at arbitrary depth, without forcing anything until
	// asked.
	wrap WrapFunc
}

// WrapFunc builds the Value for one object/array child given its raw
// JSON and the origin URL of the document it came from.
type WrapFunc func(raw json.RawMessage, origin string) Value

// New wraps raw JSON as a plain Value with no child interception.
func New(raw json.RawMessage, origin string) Value {
	return Value{raw: raw, origin: origin}
}

// NewWithWrap wraps raw JSON as a Value whose object/array children are
// each built via wrap instead of New.
func NewWithWrap(raw json.RawMessage, origin string, wrap WrapFunc) Value {
	return Value{raw: raw, origin: origin, wrap: wrap}
}

// NewForward creates a Value whose resolution is delegated to forward,
// called at most once per By invocation on this Value.
func NewForward(forward func() (Value, error), origin string) Value {
	return Value{forward: forward, origin: origin}
}

// Origin returns the URL the value's document was read from, for
// provenance logging (spec §9's "Read URL X = Y" trace). Not part of
// the public typed-access surface.
func (v Value) Origin() string {
	return v.origin
}

func (v Value) resolve() (json.RawMessage, string, WrapFunc, error) {
	cur := v
	for cur.forward != nil {
		next, err := cur.forward()
		if err != nil {
			return nil, cur.origin, nil, err
		}
		cur = next
	}
	return cur.raw, cur.origin, cur.wrap, nil
}

func (wrap WrapFunc) orPlain() WrapFunc {
	if wrap != nil {
		return wrap
	}
	return func(raw json.RawMessage, origin string) Value { return New(raw, origin) }
}

// By forces v to the requested Kind, following any external-reference
// chain transparently. v's JSON text is parsed in full to classify it;
// object and array children are returned as unforced Values.
func (v Value) By(kind Kind) (Forced, error) {
	raw, origin, wrap, err := v.resolve()
	if err != nil {
		return Forced{}, err
	}
	wrap = wrap.orPlain()

	if raw == nil || string(raw) == "null" {
		return assertKind(Forced{kind: "null", origin: origin}, kind)
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Forced{}, rerrors.Wrapf(err, rerrors.CodeWrongKind, "invalid JSON at %s", origin)
	}

	switch t := probe.(type) {
	case map[string]any:
		if kind != KindAny && kind != KindObject {
			return Forced{}, wrongKind(kind, KindObject)
		}
		var rawObj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &rawObj); err != nil {
			return Forced{}, rerrors.Wrapf(err, rerrors.CodeWrongKind, "invalid object JSON at %s", origin)
		}
		obj := make(map[string]Value, len(rawObj))
		for k, rv := range rawObj {
			obj[k] = wrap(rv, origin)
		}
		return Forced{kind: KindObject, object: obj, origin: origin}, nil

	case []any:
		if kind != KindAny && kind != KindArray {
			return Forced{}, wrongKind(kind, KindArray)
		}
		var rawArr []json.RawMessage
		if err := json.Unmarshal(raw, &rawArr); err != nil {
			return Forced{}, rerrors.Wrapf(err, rerrors.CodeWrongKind, "invalid array JSON at %s", origin)
		}
		arr := make([]Value, len(rawArr))
		for i, rv := range rawArr {
			arr[i] = wrap(rv, origin)
		}
		return Forced{kind: KindArray, array: arr, origin: origin}, nil

	case string:
		if kind != KindAny && kind != KindPrimitive && kind != KindString {
			return Forced{}, wrongKind(kind, KindString)
		}
		return Forced{kind: KindString, scalar: t, origin: origin}, nil

	case float64:
		if kind != KindAny && kind != KindPrimitive && kind != KindNumber {
			return Forced{}, wrongKind(kind, KindNumber)
		}
		return Forced{kind: KindNumber, scalar: t, origin: origin}, nil

	case bool:
		if kind != KindAny && kind != KindPrimitive && kind != KindBoolean {
			return Forced{}, wrongKind(kind, KindBoolean)
		}
		return Forced{kind: KindBoolean, scalar: t, origin: origin}, nil

	case nil:
		if kind != KindAny && kind != KindPrimitive {
			return Forced{}, wrongKind(kind, "null")
		}
		return Forced{kind: "null", origin: origin}, nil

	default:
		return Forced{}, rerrors.Newf(rerrors.CodeWrongKind, "unsupported JSON value at %s", origin)
	}
}

func assertKind(f Forced, kind Kind) (Forced, error) {
	if kind != KindAny && kind != KindPrimitive && f.kind != kind {
		return Forced{}, wrongKind(kind, f.kind)
	}
	return f, nil
}

func wrongKind(expected, actual Kind) *rerrors.ResolverError {
	return rerrors.Newf(rerrors.CodeWrongKind, "expected %s, got %s", expected, actual).
		WithContext("expected", string(expected)).
		WithContext("actual", string(actual))
}

// Forced is the narrowed result of By: exactly one of object/array/scalar
// is meaningful, selected by Kind.
type Forced struct {
	kind   Kind
	object map[string]Value
	array  []Value
	scalar any
	origin string
}

// Kind reports the Forced value's actual JSON kind.
func (f Forced) Kind() Kind { return f.kind }

// Origin returns the URL the forced value's document came from.
func (f Forced) Origin() string { return f.origin }

// Object returns the forced object's fields. Only valid when Kind() == KindObject.
func (f Forced) Object() map[string]Value { return f.object }

// Array returns the forced array's elements. Only valid when Kind() == KindArray.
func (f Forced) Array() []Value { return f.array }

// String returns the forced string. Only valid when Kind() == KindString.
func (f Forced) String() (string, error) {
	s, ok := f.scalar.(string)
	if !ok {
		return "", wrongKind(KindString, f.kind)
	}
	return s, nil
}

// Number returns the forced number. Only valid when Kind() == KindNumber.
func (f Forced) Number() (float64, error) {
	n, ok := f.scalar.(float64)
	if !ok {
		return 0, wrongKind(KindNumber, f.kind)
	}
	return n, nil
}

// Bool returns the forced boolean. Only valid when Kind() == KindBoolean.
func (f Forced) Bool() (bool, error) {
	b, ok := f.scalar.(bool)
	if !ok {
		return false, wrongKind(KindBoolean, f.kind)
	}
	return b, nil
}

// IsNull reports whether the forced value is JSON null.
func (f Forced) IsNull() bool { return f.kind == "null" }

// Field looks up a key on a forced object, returning (Value{}, false) if
// absent or if this Forced is not an object.
func (f Forced) Field(key string) (Value, bool) {
	if f.object == nil {
		return Value{}, false
	}
	v, ok := f.object[key]
	return v, ok
}

// Raw returns the underlying JSON value as a generic any (object →
// map[string]any, array → []any, scalar → its Go type), decoding the
// whole sub-tree eagerly. Used only by callers that genuinely need a
// fully-materialized value (e.g. debug logging); normal traversal
// should use By/Field/Array to stay lazy.
func (v Value) Raw() (any, error) {
	raw, _, _, err := v.resolve()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
