package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token cannot be split into three
// segments or its payload segment is not base64url encoded JSON.
var ErrMalformedToken = errors.New("malformed token")

// Claims is the payload projection the dashboard cares about. A token that
// decodes but carries no role, or a role that is not a string, yields an
// empty Role, not an error.
type Claims struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
	gjwt.RegisteredClaims
}

// segmentParser is only used for its segment decoding; no signature is
// checked. Padding is tolerated because some issuers emit padded segments.
var segmentParser = gjwt.NewParser(gjwt.WithPaddingAllowed())

// Decode parses the payload segment of a three-part dot separated token.
//
// Decode never panics on arbitrary input. Every failure wraps ErrMalformedToken.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}
	if parts[1] == "" {
		return nil, fmt.Errorf("%w: empty payload segment", ErrMalformedToken)
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' || !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedToken)
	}

	// Only role and username have to be strings. Issuers disagree on the
	// types of the registered claims, so those are best effort.
	claims := Claims{
		Role:     stringClaim(payload, "role"),
		Username: stringClaim(payload, "username"),
	}
	var registered gjwt.RegisteredClaims
	if err := json.Unmarshal(payload, &registered); err == nil {
		claims.RegisteredClaims = registered
	} else {
		claims.Subject = scalarClaim(payload, "sub")
		claims.Issuer = stringClaim(payload, "iss")
		claims.ID = scalarClaim(payload, "jti")
	}

	return &claims, nil
}

// stringClaim returns key when it holds a JSON string, "" otherwise.
func stringClaim(payload []byte, key string) string {
	v, typ, _, err := jsonparser.Get(payload, key)
	if err != nil || typ != jsonparser.String {
		return ""
	}
	s, err := jsonparser.ParseString(v)
	if err != nil {
		return ""
	}
	return s
}

// scalarClaim is stringClaim that also accepts numbers, as in "sub": 42.
func scalarClaim(payload []byte, key string) string {
	v, typ, _, err := jsonparser.Get(payload, key)
	if err == nil && typ == jsonparser.Number {
		return string(v)
	}
	return stringClaim(payload, key)
}

// RoleOf returns the role claim of token, or "" when the token is absent or
// cannot be decoded.
func RoleOf(token string) string {
	claims, err := Decode(token)
	if err != nil {
		return ""
	}
	return claims.Role
}
