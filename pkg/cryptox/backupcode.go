package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Backup code defaults. Uppercase alphanumeric keeps the codes easy to read
// back over the phone or type from a printout.
const (
	DefaultBackupCodeCount  = 10
	DefaultBackupCodeLength = 10

	backupCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateBackupCodes produces count cryptographically random recovery codes
// of the given length. The plaintext codes are only recoverable at this
// point; callers must show them to the user before hashing.
func GenerateBackupCodes(count, length int) ([]string, error) {
	if count <= 0 || length <= 0 {
		return nil, fmt.Errorf("cryptox: invalid backup code dimensions %dx%d", count, length)
	}

	codes := make([]string, count)
	for i := range codes {
		code := make([]byte, length)
		for j := range code {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeCharset))))
			if err != nil {
				return nil, fmt.Errorf("cryptox: failed to generate backup code: %w", err)
			}
			code[j] = backupCodeCharset[n.Int64()]
		}
		codes[i] = string(code)
	}
	return codes, nil
}

// HashBackupCodes hashes every code with the same bcrypt primitive used for
// passwords. Order is preserved so stored sets stay stable.
func HashBackupCodes(codes []string) ([]string, error) {
	hashes := make([]string, len(codes))
	for i, code := range codes {
		h, err := HashPassword(code)
		if err != nil {
			return nil, fmt.Errorf("cryptox: failed to hash backup code: %w", err)
		}
		hashes[i] = h
	}
	return hashes, nil
}

// MatchBackupCode scans hashes for one matching code and returns its index.
// Hashed codes have no indexable form, so a linear scan is the only option;
// with ten codes per user the extra bcrypt comparisons are negligible.
func MatchBackupCode(hashes []string, code string) (int, bool) {
	for i, h := range hashes {
		if VerifyPassword(code, h) == nil {
			return i, true
		}
	}
	return -1, false
}
