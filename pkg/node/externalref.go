package node

import "encoding/json"

// ExternalRefMagic is the compile-time UUID tag (spec §3) identifying
// an external-reference slot. It distinguishes a reference from a
// normal JSON object that merely happens to have a "url" field.
const ExternalRefMagic = "2b828e33-2692-46e9-817e-9b93d63f28fd"

// isExternalRef reports whether raw is a JSON object of the exact
// shape {"external": ExternalRefMagic, "url": "<url>"}, returning the
// referenced URL when it is.
func isExternalRef(raw json.RawMessage) (refURL string, ok bool) {
	if len(raw) == 0 {
		return "", false
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", false
	}

	extRaw, hasExternal := probe["external"]
	urlRaw, hasURL := probe["url"]
	if !hasExternal || !hasURL {
		return "", false
	}

	var magic string
	if err := json.Unmarshal(extRaw, &magic); err != nil || magic != ExternalRefMagic {
		return "", false
	}

	var u string
	if err := json.Unmarshal(urlRaw, &u); err != nil {
		return "", false
	}

	return u, true
}
