// Package vault keeps disk image passphrases and network share passwords in
// the login Keychain, or in an encrypted file keyring where no Keychain is
// available.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"
)

const (
	// ServiceName is the Keychain service items are stored under.
	ServiceName = "io.blacktop.darwinist"
	// FileName is the encrypted file keyring inside the vault dir.
	FileName    = "vault"

	imagePrefix = "dmg:"
	sharePrefix = "afp:"
)

var (
	// ErrNotFound is returned when no secret is stored under a name.
	ErrNotFound = errors.New("no passphrase stored")
	// ErrNoTTY is returned when a prompt is needed but stdin is not a terminal.
	ErrNoTTY = errors.New("cannot prompt: stdin is not a terminal")
)

// Vault stores passphrases by disk image name.
type Vault struct {
	ring keyring.Keyring
}

// New wraps an open keyring.
func New(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Open opens the Keychain, falling back to a file keyring under dir. An
// empty password prompts for one when the file keyring is used.
func Open(dir, password string) (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:                    ServiceName,
		KeychainSynchronizable:         false,
		KeychainAccessibleWhenUnlocked: true,
		KeychainTrustApplication:       true,
		FileDir:                        dir,
		FilePasswordFunc: func(string) (string, error) {
			if password != "" {
				return password, nil
			}
			msg := "Enter a password to decrypt your vault: " + filepath.Join(dir, FileName)
			if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
				msg = "Enter a password to encrypt your vault: " + filepath.Join(dir, FileName)
			}
			return PromptPassword(msg)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	return New(ring), nil
}

// PromptPassword asks for a secret on the terminal.
func PromptPassword(msg string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ErrNoTTY
	}
	var password string
	if err := survey.AskOne(&survey.Password{Message: msg}, &password); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", fmt.Errorf("prompt cancelled: %w", err)
		}
		return "", err
	}
	return password, nil
}

func (v *Vault) get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read vault: %w", err)
	}
	return string(item.Data), nil
}

func (v *Vault) set(key, secret, label, desc string) error {
	if err := v.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(secret),
		Label:       "darwinist: " + label,
		Description: desc,
	}); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	return nil
}

// Passphrase returns the stored passphrase for an image.
func (v *Vault) Passphrase(image string) (string, error) {
	pass, err := v.get(imagePrefix + image)
	if err != nil {
		return "", fmt.Errorf("%s: %w", image, err)
	}
	return pass, nil
}

// SetPassphrase stores the passphrase for an image.
func (v *Vault) SetPassphrase(image, passphrase string) error {
	return v.set(imagePrefix+image, passphrase, image, "disk image passphrase")
}

// Remove deletes the passphrase for an image.
func (v *Vault) Remove(image string) error {
	if err := v.ring.Remove(imagePrefix + image); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", image, ErrNotFound)
		}
		return fmt.Errorf("failed to remove from vault: %w", err)
	}
	return nil
}

// SharePassword returns the stored password for a network share.
func (v *Vault) SharePassword(share string) (string, error) {
	pass, err := v.get(sharePrefix + share)
	if err != nil {
		return "", fmt.Errorf("%s: %w", share, err)
	}
	return pass, nil
}

// SetSharePassword stores the password for a network share.
func (v *Vault) SetSharePassword(share, password string) error {
	return v.set(sharePrefix+share, password, share, "AFP share password")
}
