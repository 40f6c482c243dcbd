package jwtgen

import "maps"

// PayloadTemplate is the JSON object a payload is rendered from.
type PayloadTemplate map[string]any

// RenderPayload layers template < standard claims < extra claims.
// Extra claims may not touch the registered claims resolved by BuildStandardClaims.
func RenderPayload(tpl PayloadTemplate, std StandardClaims, extra ExtraClaims) (map[string]any, error) {
	if tpl == nil {
		return nil, newError(ErrCodeClaim, "invalid template: must be a JSON object")
	}

	payload := make(map[string]any, len(tpl)+len(reservedClaims)+len(extra))
	maps.Copy(payload, tpl)
	maps.Copy(payload, std.Map())

	for key := range extra {
		if flag, reserved := reservedClaims[key]; reserved {
			return nil, newError(ErrCodeClaim, "claim %q cannot be set as an extra claim; use %s", key, flag)
		}
	}
	maps.Copy(payload, extra)

	return payload, nil
}
