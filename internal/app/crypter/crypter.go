/*
Package crypter implements the secure channel used to protect payloads on the wire.

Bulk payloads are encrypted with AES-256 in CBC mode with PKCS#7 padding. Every
Encrypt call generates a fresh random IV and writes it as a fixed-size header in
front of the ciphertext; payloads are streamed through a bounded buffer, so
arbitrarily large inputs never have to fit in memory. Key distribution is
hybrid: the symmetric session key is sealed with the peer's RSA public key
(OAEP/SHA-256) and delivered once at registration.
*/
package crypter

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

const (
	// KeySize is the symmetric key length in bytes (AES-256).
	KeySize = 32

	// bufferSize is the chunk size used when streaming the cipher.
	bufferSize = 4096
)

var (
	// ErrClosed is returned by every operation on a closed Crypter.
	ErrClosed = errors.New("crypter: operation on closed crypter")

	// ErrNilStream is returned when a nil reader or writer is passed in.
	ErrNilStream = errors.New("crypter: nil stream")

	// ErrNilObject is returned when a nil object is passed to EncryptObject.
	ErrNilObject = errors.New("crypter: nil object")

	// ErrNoKey is returned when a cipher operation runs before a key is configured.
	ErrNoKey = errors.New("crypter: no key configured")

	// ErrKeySize is returned by SetKey for keys that are not KeySize bytes long.
	ErrKeySize = errors.New("crypter: invalid key size")

	// ErrCiphertext is returned when the input is not a well-formed ciphertext
	// (truncated IV header, partial block, or bad padding).
	ErrCiphertext = errors.New("crypter: malformed ciphertext")
)

// Crypter holds a configured symmetric key and performs the channel's
// encrypt/decrypt operations. No state beyond the key is shared between
// operations, so a Crypter may encrypt and decrypt independent streams.
type Crypter struct {
	key    []byte
	closed bool
}

// New returns a Crypter with no key configured.
func New() *Crypter {
	return &Crypter{}
}

// GenerateKey creates a fresh random symmetric key, configures the Crypter
// with it, and returns it.
func (c *Crypter) GenerateKey() ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate symmetric key: %w", err)
	}

	c.key = key
	return key, nil
}

// SetKey configures the Crypter with an externally supplied key.
func (c *Crypter) SetKey(key []byte) error {
	if c.closed {
		return ErrClosed
	}
	if len(key) != KeySize {
		return ErrKeySize
	}

	c.key = bytes.Clone(key)
	return nil
}

// Encrypt reads plaintext from src and writes IV header plus ciphertext to dst.
func (c *Crypter) Encrypt(src io.Reader, dst io.Writer) error {
	if c.closed {
		return ErrClosed
	}
	if src == nil || dst == nil {
		return ErrNilStream
	}

	block, err := c.cipherBlock()
	if err != nil {
		return err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("failed to generate IV: %w", err)
	}
	if _, err := dst.Write(iv); err != nil {
		return fmt.Errorf("failed to write IV header: %w", err)
	}

	enc := cipher.NewCBCEncrypter(block, iv)
	buf := make([]byte, bufferSize)

	for {
		n, rerr := io.ReadFull(src, buf)

		switch {
		case rerr == nil:
			enc.CryptBlocks(buf, buf)
			if _, err := dst.Write(buf); err != nil {
				return fmt.Errorf("failed to write ciphertext: %w", err)
			}

		case rerr == io.EOF || rerr == io.ErrUnexpectedEOF:
			// Final (possibly empty) tail: pad to a full block and finish.
			tail := pad(buf[:n])
			enc.CryptBlocks(tail, tail)
			if _, err := dst.Write(tail); err != nil {
				return fmt.Errorf("failed to write ciphertext: %w", err)
			}
			return nil

		default:
			return fmt.Errorf("failed to read plaintext: %w", rerr)
		}
	}
}

// Decrypt reads an IV header plus ciphertext from src and writes the
// recovered plaintext to dst.
func (c *Crypter) Decrypt(src io.Reader, dst io.Writer) error {
	if c.closed {
		return ErrClosed
	}
	if src == nil || dst == nil {
		return ErrNilStream
	}

	block, err := c.cipherBlock()
	if err != nil {
		return err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		return ErrCiphertext
	}

	dec := cipher.NewCBCDecrypter(block, iv)
	buf := make([]byte, bufferSize)

	// The final decrypted block carries the padding, so one block is always
	// held back until the source is exhausted.
	pending := make([]byte, aes.BlockSize)
	havePending := false

	for {
		n, rerr := io.ReadFull(src, buf)
		if rerr == io.EOF {
			break
		}
		if rerr != nil && rerr != io.ErrUnexpectedEOF {
			return fmt.Errorf("failed to read ciphertext: %w", rerr)
		}
		if n == 0 || n%aes.BlockSize != 0 {
			return ErrCiphertext
		}

		chunk := buf[:n]
		dec.CryptBlocks(chunk, chunk)

		if havePending {
			if _, err := dst.Write(pending); err != nil {
				return fmt.Errorf("failed to write plaintext: %w", err)
			}
		}
		if _, err := dst.Write(chunk[:n-aes.BlockSize]); err != nil {
			return fmt.Errorf("failed to write plaintext: %w", err)
		}

		copy(pending, chunk[n-aes.BlockSize:])
		havePending = true

		if rerr == io.ErrUnexpectedEOF {
			break
		}
	}

	if !havePending {
		return ErrCiphertext
	}

	tail, err := unpad(pending)
	if err != nil {
		return err
	}
	if _, err := dst.Write(tail); err != nil {
		return fmt.Errorf("failed to write plaintext: %w", err)
	}
	return nil
}

// EncryptObject serializes v and encrypts the serialized form into dst.
func (c *Crypter) EncryptObject(v any, dst io.Writer) error {
	if c.closed {
		return ErrClosed
	}
	if v == nil {
		return ErrNilObject
	}
	if dst == nil {
		return ErrNilStream
	}

	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize object: %w", err)
	}

	return c.Encrypt(bytes.NewReader(data), dst)
}

// DecryptObject decrypts one serialized object from src into v.
func (c *Crypter) DecryptObject(src io.Reader, v any) error {
	if c.closed {
		return ErrClosed
	}
	if src == nil {
		return ErrNilStream
	}
	if v == nil {
		return ErrNilObject
	}

	var plain bytes.Buffer
	if err := c.Decrypt(src, &plain); err != nil {
		return err
	}

	if err := cbor.Unmarshal(plain.Bytes(), v); err != nil {
		return fmt.Errorf("failed to deserialize object: %w", err)
	}
	return nil
}

// SealKeyFor encrypts the configured symmetric key with the peer's RSA
// public key so it can be delivered over an untrusted channel.
func (c *Crypter) SealKeyFor(pub *rsa.PublicKey) ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if pub == nil {
		return nil, ErrNilObject
	}
	if c.key == nil {
		return nil, ErrNoKey
	}

	sealed, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, c.key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to seal session key: %w", err)
	}
	return sealed, nil
}

// UnsealKey recovers a sealed symmetric key with the local RSA private key
// and configures the Crypter with it.
func (c *Crypter) UnsealKey(priv *rsa.PrivateKey, sealed []byte) error {
	if c.closed {
		return ErrClosed
	}
	if priv == nil {
		return ErrNilObject
	}

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, sealed, nil)
	if err != nil {
		return fmt.Errorf("failed to unseal session key: %w", err)
	}
	return c.SetKey(key)
}

// Close zeroizes the key. Every later operation fails with ErrClosed.
func (c *Crypter) Close() {
	if c.closed {
		return
	}

	for i := range c.key {
		c.key[i] = 0
	}
	c.key = nil
	c.closed = true
}

func (c *Crypter) cipherBlock() (cipher.Block, error) {
	if c.key == nil {
		return nil, ErrNoKey
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return block, nil
}

// pad appends PKCS#7 padding, always producing at least one padding byte.
func pad(data []byte) []byte {
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// unpad strips PKCS#7 padding from the final block.
func unpad(block []byte) ([]byte, error) {
	padLen := int(block[len(block)-1])
	if padLen < 1 || padLen > aes.BlockSize {
		return nil, ErrCiphertext
	}
	for _, b := range block[len(block)-padLen:] {
		if int(b) != padLen {
			return nil, ErrCiphertext
		}
	}
	return block[:len(block)-padLen], nil
}
