package settings

import "strings"

// Preference is a local override of a server setting. The zero value
// inherits the server value.
type Preference int8

const (
	Inherited Preference = iota
	Enabled
	Disabled
)

// PreferenceOf returns Enabled or Disabled for v.
func PreferenceOf(v bool) Preference {
	if v {
		return Enabled
	}
	return Disabled
}

// ParsePreference reads a stored preference. "true" and "false" are
// overrides; anything else inherits.
func ParsePreference(s string) Preference {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return Enabled
	case "false":
		return Disabled
	}
	return Inherited
}

// String returns the stored form: "true", "false" or "".
func (p Preference) String() string {
	switch p {
	case Enabled:
		return "true"
	case Disabled:
		return "false"
	}
	return ""
}

// Set reports whether p overrides the server value.
func (p Preference) Set() bool { return p == Enabled || p == Disabled }

// Or returns the override, or def when p inherits.
func (p Preference) Or(def bool) bool {
	if !p.Set() {
		return def
	}
	return p == Enabled
}

// Kind selects the override rule used by [Resolve].
type Kind int

const (
	// KindCompact is the compact-teams toggle. Authenticated users change
	// the server value directly, so their local override is ignored.
	KindCompact Kind = iota
	// KindProfileImages is the avatar toggle. It is a per-viewer choice and
	// the local override always applies.
	KindProfileImages
)

// Resolve returns the effective value of a toggle.
func Resolve(server bool, local Preference, authenticated bool, kind Kind) bool {
	if kind == KindCompact && authenticated {
		return server
	}
	return local.Or(server)
}

// Toggle returns the preference to store after flipping the effective value
// of a profile-images style toggle. When the new value equals the server
// value the override is cleared.
func Toggle(server bool, local Preference) Preference {
	next := !local.Or(server)
	if next == server {
		return Inherited
	}
	return PreferenceOf(next)
}
