package services

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
)

// SaltLength is the number of characters in a generated salt.
const SaltLength = 7

const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSalt returns a random alphanumeric salt of [SaltLength] characters.
func NewSalt() (models.Salt, error) {
	b := make([]byte, SaltLength)
	max := big.NewInt(int64(len(saltAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}
		b[i] = saltAlphabet[n.Int64()]
	}
	return models.Salt(b), nil
}

// SaltedMD5 returns the lowercase hex md5 of password followed by salt.
func SaltedMD5(password models.Password, salt models.Salt) models.PasswordHash {
	sum := md5.Sum([]byte(string(password) + string(salt)))
	return models.PasswordHash(hex.EncodeToString(sum[:]))
}

// TokenFromPassword salts and hashes password with a fresh salt.
func TokenFromPassword(password models.Password) (models.TokenInfo, error) {
	salt, err := NewSalt()
	if err != nil {
		return models.TokenInfo{}, err
	}
	return models.TokenInfo{Hash: SaltedMD5(password, salt), Salt: salt}, nil
}

// CredentialsFromConfig returns the token for c, preferring a configured token over the password.
func CredentialsFromConfig(c shared.ClientConfig) (models.TokenInfo, error) {
	if c.Token != nil && c.Token.Hash != "" && c.Token.Salt != "" {
		return models.TokenInfo{
			Hash: models.PasswordHash(c.Token.Hash),
			Salt: models.Salt(c.Token.Salt),
		}, nil
	}
	if c.Password == "" {
		return models.TokenInfo{}, shared.ErrMissingCredentials
	}
	return TokenFromPassword(models.Password(c.Password))
}
