package config

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

// writeTestSSHKey generates an ed25519 private key in OpenSSH format.
// Ed25519 signatures are deterministic, which the key derivation relies
// on: a fresh store loading the same key must derive the same cipher.
func writeTestSSHKey(t *testing.T, dir string) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	keyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatal(err)
	}
	return keyPath
}

func TestCredentialStoreSSHEncryptedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTestSSHKey(t, dir)

	store := NewCredentialStore(SecuritySSHKey, keyPath)
	if err := store.Set("anthropic", "sk-ant-secret"); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(dir); err != nil {
		t.Fatal(err)
	}

	encPath := filepath.Join(dir, "credentials.enc")
	info, err := os.Stat(encPath)
	if err != nil {
		t.Fatal(err)
	}
	if perms := info.Mode().Perm(); perms != 0600 {
		t.Errorf("encrypted credentials should be 0600, got %o", perms)
	}

	// The key must not appear in the file.
	raw, err := os.ReadFile(encPath)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("sk-ant-secret")) {
		t.Error("credential stored in the clear")
	}

	// A fresh store with the same SSH key derives the same cipher.
	loaded := NewCredentialStore(SecuritySSHKey, keyPath)
	if err := loaded.Load(dir); err != nil {
		t.Fatal(err)
	}
	if got := loaded.Get("anthropic"); got != "sk-ant-secret" {
		t.Errorf("credential did not round-trip: %q", got)
	}
}

func TestCredentialStoreSSHEncryptedNoFile(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTestSSHKey(t, dir)

	store := NewCredentialStore(SecuritySSHKey, keyPath)
	if err := store.Load(dir); err != nil {
		t.Fatalf("missing credentials file should load empty: %v", err)
	}
	if got := store.Get("openai"); got != "" {
		t.Errorf("expected no credential, got %q", got)
	}
}

func TestCredentialStoreSSHWrongKeyFailsToDecrypt(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTestSSHKey(t, dir)

	store := NewCredentialStore(SecuritySSHKey, keyPath)
	if err := store.Set("openai", "sk-test"); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(dir); err != nil {
		t.Fatal(err)
	}

	otherDir := t.TempDir()
	otherKey := writeTestSSHKey(t, otherDir)

	loaded := NewCredentialStore(SecuritySSHKey, otherKey)
	err := loaded.Load(dir)
	if err == nil {
		t.Fatal("expected decryption failure with a different key")
	}
	if !strings.Contains(err.Error(), "decrypt") {
		t.Errorf("error should mention decryption: %v", err)
	}
}

func TestKeyCipherOpenRejectsShortCiphertext(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTestSSHKey(t, dir)

	kc, err := openKeyCipher(keyPath, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kc.Open([]byte{0x01, 0x02}); err == nil {
		t.Error("expected error for truncated ciphertext")
	}
}
