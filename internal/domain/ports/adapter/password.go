package adapter

// PasswordHasher turns plain passwords into stored hashes and back.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Compare returns nil only when plain matches hash.
	Compare(hash, plain string) error
}
