// Package model defines the platform records the console reads from and
// writes to the remote API, plus the locally persisted activity log entry.
//
// The structs mirror the API's JSON field names through struct tags; any
// normalisation (role flags, nested optional objects) happens here so the
// rest of the application only sees canonical Go values.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the canonical representation of a platform account's role.
//
// The API is inconsistent: list endpoints send 0/1, other payloads send
// "user"/"admin". Both decode into Role; nothing outside this package sees
// the raw form.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// Label is the capitalised form used in tables and selects.
func (r Role) Label() string {
	if r == RoleAdmin {
		return "Admin"
	}
	return "User"
}

// ParseRole accepts "user"/"admin" (any case) and "0"/"1".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "0":
		return RoleUser, nil
	case "admin", "1":
		return RoleAdmin, nil
	}
	return RoleUser, fmt.Errorf("model: unknown role %q", s)
}

// UnmarshalJSON decodes either a number flag or a role name.
func (r *Role) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = RoleUser
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseRole(s)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("model: decoding role: %w", err)
	}
	switch n {
	case 0:
		*r = RoleUser
	case 1:
		*r = RoleAdmin
	default:
		return fmt.Errorf("model: unknown role flag %d", n)
	}
	return nil
}

// MarshalJSON writes the role name, which is what the role-update endpoint
// expects in its newRole field.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
