package models

import "strings"

// Side is one of the two complementary outcomes of the market.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// ParseSide normalises a user supplied side or outcome. The second return
// value is false for anything other than "yes" or "no".
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideYes:
		return SideYes, true
	case SideNo:
		return SideNo, true
	}
	return "", false
}

// Valid reports whether s is one of the two outcomes.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Opposite returns the other outcome.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}
