package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// derivationMessage is the fixed payload signed to derive the cipher key.
// Changing it invalidates every existing credentials.enc file.
const derivationMessage = "loom-encryption-key-derivation-v1"

// keyCipher seals and opens the encrypted credentials file with
// AES-256-GCM. The 32-byte cipher key is the SHA-256 of a signature made
// with the user's SSH key over a fixed message, so the same key file
// always opens the same blobs and no key material is stored next to them.
//
// The derivation requires a deterministic signature scheme. Ed25519 and
// RSA keys qualify; ECDSA signatures are randomized and would produce a
// different cipher key on every run.
type keyCipher struct {
	gcm cipher.AEAD
}

// openKeyCipher loads the SSH private key at keyPath and derives the
// cipher from it. An encrypted key without a passphrase is an error.
func openKeyCipher(keyPath, passphrase string) (*keyCipher, error) {
	encrypted, err := IsSSHKeyEncrypted(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check SSH key: %w", err)
	}
	if encrypted && passphrase == "" {
		return nil, fmt.Errorf("SSH key is encrypted - passphrase required")
	}

	var signer ssh.Signer
	if encrypted {
		signer, err = LoadSSHPrivateKeyWithPassphrase(keyPath, passphrase)
	} else {
		signer, err = LoadSSHPrivateKey(keyPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key: %w", err)
	}

	if Debug && DebugLog != nil {
		DebugLog.Printf("[keyCipher] derived cipher from %s (encrypted=%v)", keyPath, encrypted)
	}
	return newKeyCipher(signer)
}

// newKeyCipher derives the AES-GCM cipher from an already-loaded signer.
func newKeyCipher(signer ssh.Signer) (*keyCipher, error) {
	sig, err := signer.Sign(rand.Reader, []byte(derivationMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	key := sha256.Sum256(sig.Blob)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &keyCipher{gcm: gcm}, nil
}

// Seal encrypts plaintext. Output format: [nonce][ciphertext+tag].
func (kc *keyCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, kc.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return kc.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal.
func (kc *keyCipher) Open(sealed []byte) ([]byte, error) {
	nonceSize := kc.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	plaintext, err := kc.gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
