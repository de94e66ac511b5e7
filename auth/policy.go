// Package auth enforces the authoring-time passphrase policy. The runtime
// unlock path never applies policy: it must accept whatever passphrase the
// vault was authored with.
package auth

import (
	"errors"
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

const specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_{|}~`"

// MinScore is the zxcvbn score (0-4) a new vault passphrase must reach.
const MinScore = 3

// ErrWeakPassphrase marks a passphrase that satisfies the character classes
// but is still guessable (dictionary words, dates, keyboard walks).
var ErrWeakPassphrase = errors.New("passphrase is too guessable")

// ValidatePassphrase applies the vault passphrase policy: minimum length,
// character classes, then a zxcvbn strength estimate. Composition rules
// alone pass plenty of guessable passphrases, so the estimator has the
// final word.
func ValidatePassphrase(pw string) error {
	if len(pw) < 12 {
		return errors.New("passphrase must be at least 12 characters long")
	}
	if !hasUpper(pw) {
		return errors.New("passphrase must include an uppercase letter")
	}
	if !hasDigit(pw) {
		return errors.New("passphrase must include a digit")
	}
	if !hasSpecial(pw) {
		return errors.New("passphrase must include a special character")
	}
	if Strength(pw) < MinScore {
		return ErrWeakPassphrase
	}
	return nil
}

// Strength returns the zxcvbn score for pw, 0 (guessable within minutes) to
// 4 (strong against offline attack).
func Strength(pw string) int {
	return zxcvbn.PasswordStrength(pw, nil).Score
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasSpecial(s string) bool {
	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}
