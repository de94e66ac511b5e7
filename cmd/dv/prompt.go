package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/Hussein-Mazeh/DocVault/krypto"
)

// promptPassphrase reads a passphrase from the terminal without echo. The
// caller owns the returned bytes and must zero them.
func promptPassphrase(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// promptNewPassphrase reads and confirms a passphrase for authoring.
func promptNewPassphrase() ([]byte, error) {
	pw, err := promptPassphrase("Vault passphrase: ")
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}

	confirm, err := promptPassphrase("Confirm passphrase: ")
	if err != nil {
		krypto.Zero(pw)
		return nil, fmt.Errorf("read confirmation: %w", err)
	}
	defer krypto.Zero(confirm)

	if !bytes.Equal(pw, confirm) {
		krypto.Zero(pw)
		return nil, errors.New("passphrases do not match")
	}
	return pw, nil
}
