package ports

// PasswordHasher abstracts the one-way password hash so the services do not
// depend on a concrete algorithm.
type PasswordHasher interface {
	// Hash derives a salted hash from a plaintext password.
	Hash(password string) (string, error)
	// Verify reports whether the plaintext matches the stored hash.
	Verify(password, hash string) bool
}
