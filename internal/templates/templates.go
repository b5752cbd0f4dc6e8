// Package templates resolves which cosmetic invoice template to render.
// Rendering itself lives in the frontend; the backend only stores ids and
// applies the precedence rule.
package templates

// ID identifies one of the built-in invoice templates.
type ID string

const (
	Classic ID = "classic"
	Minimal ID = "minimal"
	Bold    ID = "bold"
	Elegant ID = "elegant"
	Retro   ID = "retro"
	Neon    ID = "neon"
	Mono    ID = "mono"
	Ocean   ID = "ocean"
	Sunset  ID = "sunset"

	// Default is used when no override is set anywhere.
	Default = Classic
)

var known = map[ID]struct{}{
	Classic: {}, Minimal: {}, Bold: {}, Elegant: {}, Retro: {},
	Neon: {}, Mono: {}, Ocean: {}, Sunset: {},
}

// IsValid reports whether id names a known template.
func IsValid(id ID) bool {
	_, ok := known[id]
	return ok
}

// Resolve picks the effective template: invoice override wins, then client
// override, then the profile default, then Default. An empty or unrecognized
// id at any level is skipped.
func Resolve(invoice, client, profile ID) ID {
	for _, id := range []ID{invoice, client, profile} {
		if IsValid(id) {
			return id
		}
	}
	return Default
}
