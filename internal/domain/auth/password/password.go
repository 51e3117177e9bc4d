package password

type Hasher interface {
	Hash(plaintext string) (string, error)

	// Verify returns false, nil on a mismatch; an error only when hash cannot be parsed.
	Verify(plaintext, hash string) (bool, error)

	NeedsUpgrade(hash string) bool
}
