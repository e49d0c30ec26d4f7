package port

// Identity is what a validated token resolves to.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

type AuthProvider interface {
	// HashPassword returns an opaque salted hash of the password.
	HashPassword(password string) (string, error)

	// VerifyPassword reports whether the password matches the stored hash.
	VerifyPassword(password, hash string) bool

	// IssueToken mints a bearer token for the identity.
	IssueToken(identity Identity) (string, error)

	// ValidateToken parses and verifies a bearer token, returning the
	// identity it was issued for. Fails on expired or malformed tokens.
	ValidateToken(token string) (*Identity, error)
}
