package verifyaccount

import (
	"crypto/sha256"
	"crypto/subtle"
	"strconv"
	"strings"
)

const tokenSeparator = "_"

// EncodeToken builds the externally presented token "<accountID>_<key>".
func EncodeToken(accountID int64, key string) string {
	return strconv.FormatInt(accountID, 10) + tokenSeparator + key
}

// DecodeToken splits a token on its first separator. The key part may itself
// contain separators.
func DecodeToken(token string) (int64, string, error) {
	idPart, key, ok := strings.Cut(token, tokenSeparator)
	if !ok || idPart == "" || key == "" {
		return 0, "", ErrMalformedToken
	}

	accountID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || accountID <= 0 {
		return 0, "", ErrMalformedToken
	}

	return accountID, key, nil
}

// KeysMatch compares a presented key with the stored one in constant time.
// Both sides are hashed first so the comparison length does not depend on the input.
func KeysMatch(candidate, stored string) bool {
	a := sha256.Sum256([]byte(candidate))
	b := sha256.Sum256([]byte(stored))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
