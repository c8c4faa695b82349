package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidCiphertext возвращается, если шифротекст повреждён, подделан
// или зашифрован другим ключом
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// blobVersion первый байт каждого зашифрованного пароля, входит в AAD
const blobVersion byte = 0x01

// Vault шифрует пароли приложений почтовых ящиков.
//
// Формат хранимой строки (base64url без паддинга):
//
//	[version: 1 byte] [nonce: 24 bytes] [ciphertext+tag]
type Vault struct {
	aead cipher.AEAD
}

// New создаёт хранилище с ключом, производным от passphrase.
// Ключ = SHA-256(passphrase), так что пароль оператора может быть любой длины.
func New(passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("encryption passphrase is empty")
	}

	key := sha256.Sum256([]byte(passphrase))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("create XChaCha20-Poly1305 cipher: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt шифрует пароль
func (v *Vault) Encrypt(plaintext string) (string, error) {
	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 1+len(nonce), 1+len(nonce)+len(plaintext)+v.aead.Overhead())
	out[0] = blobVersion
	copy(out[1:], nonce[:])

	out = v.aead.Seal(out, nonce[:], []byte(plaintext), []byte{blobVersion})
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt расшифровывает пароль. Любая ошибка формата или аутентификации
// возвращается как ErrInvalidCiphertext.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrInvalidCiphertext, err)
	}

	nonceSize := v.aead.NonceSize()
	if len(raw) < 1+nonceSize+v.aead.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}
	if raw[0] != blobVersion {
		return "", fmt.Errorf("%w: unknown version %#x", ErrInvalidCiphertext, raw[0])
	}

	plaintext, err := v.aead.Open(nil, raw[1:1+nonceSize], raw[1+nonceSize:], []byte{blobVersion})
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrInvalidCiphertext)
	}

	return string(plaintext), nil
}
