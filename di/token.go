package di

import "strconv"

// Token identifies a capability inside a Graph.
//
// Identity, not name, is the key: two tokens are equal only if they were
// returned by the same NewToken call. The name is carried for errors, logs
// and manifests.
//
// The zero Token is invalid and never matches a registered capability.
type Token struct {
	id *tokenID
}

type tokenID struct {
	name string
}

// NewToken allocates a fresh capability identity.
//
// Tokens are typically declared once as package-level variables:
//
//	var TokDB = di.NewToken("db")
func NewToken(name string) Token {
	return Token{id: &tokenID{name: name}}
}

// Name returns the human-readable name given to NewToken.
func (t Token) Name() string {
	if t.id == nil {
		return ""
	}
	return t.id.name
}

// Valid reports whether t was created by NewToken.
func (t Token) Valid() bool { return t.id != nil }

// String implements fmt.Stringer.
func (t Token) String() string {
	if t.id == nil {
		return "<invalid token>"
	}
	return strconv.Quote(t.id.name)
}

// Key is a Token that remembers the static Go type of its capability.
//
// It is what typed helpers (Lookup, Resolve, Define1, ...) take so callers never
// write type assertions themselves.
type Key[T any] struct {
	Token
}

// NewKey allocates a typed capability identity.
func NewKey[T any](name string) Key[T] {
	return Key[T]{Token: NewToken(name)}
}

// TokenSet is an unordered set of tokens.
type TokenSet map[Token]struct{}

// NewTokenSet builds a set from the given tokens.
func NewTokenSet(tokens ...Token) TokenSet {
	s := make(TokenSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether t is in the set.
func (s TokenSet) Has(t Token) bool {
	_, ok := s[t]
	return ok
}
