//go:build !cgo

package external

// Available reports whether libpostal is linked in
const Available = false

// Parse returns no components without cgo
func Parse(raw string) Components {
	return Components{}
}
