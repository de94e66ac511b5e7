package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassphraseCompositionRules(t *testing.T) {
	cases := []struct {
		name string
		pw   string
		want string
	}{
		{"too short", "Ab1!x", "at least 12"},
		{"no uppercase", "abcdefgh1234!xyz", "uppercase"},
		{"no digit", "Abcdefghijk!mnop", "digit"},
		{"no special", "Abcdefgh1234mnop", "special"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassphrase(tc.pw)
			if err == nil {
				t.Fatalf("ValidatePassphrase(%q) = nil, want error", tc.pw)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidatePassphraseRejectsGuessable(t *testing.T) {
	// Satisfies every character class, still a dictionary word with the
	// usual decorations.
	err := ValidatePassphrase("Password1234!")
	if !errors.Is(err, ErrWeakPassphrase) {
		t.Fatalf("err = %v, want ErrWeakPassphrase", err)
	}
}

func TestValidatePassphraseAcceptsStrong(t *testing.T) {
	if err := ValidatePassphrase("kV9#wQz7$mXr2!pT"); err != nil {
		t.Fatalf("strong passphrase rejected: %v", err)
	}
}

func TestStrengthOrdering(t *testing.T) {
	weak := Strength("password")
	strong := Strength("kV9#wQz7$mXr2!pT")
	if weak >= strong {
		t.Fatalf("Strength(password)=%d not below Strength(random)=%d", weak, strong)
	}
	if strong < MinScore {
		t.Fatalf("random 16-char passphrase scored %d, below MinScore %d", strong, MinScore)
	}
}
