// Package password hashes and verifies stored principal passwords.
//
// New hashes are bcrypt. Verification also accepts crypt(3) hashes
// ($1$ md5, $5$ sha256, $6$ sha512) imported from host account databases,
// and bare hex SHA-256 digests written by earlier deployments.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost used for new hashes.
const DefaultBcryptCost = 10

// MaxLength is the longest password bcrypt hashes without truncation.
const MaxLength = 72

// Work factor limits for stored hashes. Hashes above them are refused
// rather than verified.
const (
	MaxBcryptCost  = 16
	MaxCryptRounds = 500000
)

var (
	// ErrTooLong is returned when a password exceeds MaxLength bytes.
	ErrTooLong = errors.New("password must be at most 72 bytes")

	// ErrEmpty is returned when hashing an empty password.
	ErrEmpty = errors.New("password must not be empty")

	// ErrUnsupportedHash is returned for stored hashes in no known format.
	ErrUnsupportedHash = errors.New("unsupported password hash")

	// ErrHashTooExpensive is returned for hashes whose cost or rounds exceed
	// MaxBcryptCost or MaxCryptRounds.
	ErrHashTooExpensive = errors.New("password hash work factor too high")
)

// Hash returns a bcrypt hash of plain.
func Hash(plain string) (string, error) {
	return HashWithCost(plain, DefaultBcryptCost)
}

// HashWithCost returns a bcrypt hash of plain using cost.
func HashWithCost(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	if len(plain) > MaxLength {
		return "", ErrTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether candidate matches hash. Unknown, malformed or
// over-expensive hashes never match.
func Verify(hash, candidate string) bool {
	if CheckHash(hash) != nil {
		return false
	}
	switch {
	case isBcrypt(hash):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
	case isHexSHA256(hash):
		sum := sha256.Sum256([]byte(candidate))
		want, err := hex.DecodeString(strings.ToLower(hash))
		if err != nil {
			return false
		}
		return subtle.ConstantTimeCompare(sum[:], want) == 1
	default:
		return crypterFor(hash).Verify(hash, []byte(candidate)) == nil
	}
}

// CheckHash returns nil when hash is in a supported format and within the
// work factor limits.
func CheckHash(hash string) error {
	switch {
	case isBcrypt(hash):
		cost, err := bcrypt.Cost([]byte(hash))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
		}
		if cost > MaxBcryptCost {
			return fmt.Errorf("%w: bcrypt cost %d", ErrHashTooExpensive, cost)
		}
		return nil
	case isHexSHA256(hash):
		return nil
	case crypterFor(hash) != nil:
		rounds, ok := cryptRounds(hash)
		if !ok {
			return fmt.Errorf("%w: bad rounds parameter", ErrUnsupportedHash)
		}
		if rounds > MaxCryptRounds {
			return fmt.Errorf("%w: %d rounds", ErrHashTooExpensive, rounds)
		}
		return nil
	default:
		return ErrUnsupportedHash
	}
}

// NeedsRehash reports whether hash should be replaced by a fresh bcrypt
// hash the next time the plain password is known.
func NeedsRehash(hash string) bool {
	if !isBcrypt(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < DefaultBcryptCost
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

func crypterFor(hash string) crypt.Crypter {
	switch {
	case strings.HasPrefix(hash, "$6$"):
		return sha512_crypt.New()
	case strings.HasPrefix(hash, "$5$"):
		return sha256_crypt.New()
	case strings.HasPrefix(hash, "$1$"):
		return md5_crypt.New()
	default:
		return nil
	}
}

// cryptRounds returns the rounds= parameter of a crypt(3) hash, or 0 when
// the hash uses its scheme's default.
func cryptRounds(hash string) (int, bool) {
	parts := strings.SplitN(hash, "$", 4)
	if len(parts) < 3 {
		return 0, false
	}
	v, ok := strings.CutPrefix(parts[2], "rounds=")
	if !ok {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return n, true
	}
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func isHexSHA256(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
