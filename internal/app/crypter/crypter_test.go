package crypter

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

func newKeyedCrypter(t *testing.T) *Crypter {
	t.Helper()

	c := New()
	_, err := c.GenerateKey()
	require.NoError(t, err)

	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 15, 16, 17, 4095, 4096, 4097, 100_000}

	c := newKeyedCrypter(t)

	for _, size := range sizes {
		plain := make([]byte, size)
		_, err := rand.Read(plain)
		require.NoError(t, err)

		var sealed bytes.Buffer
		require.NoError(t, c.Encrypt(bytes.NewReader(plain), &sealed))

		// IV header plus at least one full padded block.
		require.GreaterOrEqual(t, sealed.Len(), 2*aes.BlockSize)
		require.Equal(t, 0, sealed.Len()%aes.BlockSize)

		var recovered bytes.Buffer
		require.NoError(t, c.Decrypt(bytes.NewReader(sealed.Bytes()), &recovered))
		require.Equal(t, plain, recovered.Bytes())
	}
}

func TestEncryptProducesFreshIV(t *testing.T) {
	c := newKeyedCrypter(t)
	plain := []byte("same plaintext twice")

	var first, second bytes.Buffer
	require.NoError(t, c.Encrypt(bytes.NewReader(plain), &first))
	require.NoError(t, c.Encrypt(bytes.NewReader(plain), &second))

	require.NotEqual(t, first.Bytes(), second.Bytes())
}

func TestObjectRoundTrip(t *testing.T) {
	type payload struct {
		Name  string
		Count int
		Tags  []string
	}

	c := newKeyedCrypter(t)

	in := payload{Name: "report.txt", Count: 3, Tags: []string{"a", "b"}}

	var sealed bytes.Buffer
	require.NoError(t, c.EncryptObject(in, &sealed))

	var out payload
	require.NoError(t, c.DecryptObject(bytes.NewReader(sealed.Bytes()), &out))
	require.Equal(t, in, out)
}

func TestSealUnsealKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sender := newKeyedCrypter(t)

	sealed, err := sender.SealKeyFor(&priv.PublicKey)
	require.NoError(t, err)

	receiver := New()
	require.NoError(t, receiver.UnsealKey(priv, sealed))

	// Both sides now share the session key.
	var ct bytes.Buffer
	require.NoError(t, sender.Encrypt(bytes.NewReader([]byte("hello peer")), &ct))

	var pt bytes.Buffer
	require.NoError(t, receiver.Decrypt(bytes.NewReader(ct.Bytes()), &pt))
	require.Equal(t, "hello peer", pt.String())
}

func TestDecryptRejectsTruncatedInput(t *testing.T) {
	c := newKeyedCrypter(t)

	var sealed bytes.Buffer
	require.NoError(t, c.Encrypt(bytes.NewReader([]byte("some payload")), &sealed))

	// Only part of the IV header.
	var out bytes.Buffer
	err := c.Decrypt(bytes.NewReader(sealed.Bytes()[:aes.BlockSize-1]), &out)
	require.ErrorIs(t, err, ErrCiphertext)

	// IV header but no ciphertext block at all.
	out.Reset()
	err = c.Decrypt(bytes.NewReader(sealed.Bytes()[:aes.BlockSize]), &out)
	require.ErrorIs(t, err, ErrCiphertext)

	// Partial final block.
	out.Reset()
	err = c.Decrypt(bytes.NewReader(sealed.Bytes()[:sealed.Len()-1]), &out)
	require.ErrorIs(t, err, ErrCiphertext)
}

func TestSetKeyValidatesSize(t *testing.T) {
	c := New()

	require.ErrorIs(t, c.SetKey(make([]byte, 16)), ErrKeySize)
	require.ErrorIs(t, c.SetKey(nil), ErrKeySize)
	require.NoError(t, c.SetKey(make([]byte, KeySize)))
}

func TestOperationsWithoutKey(t *testing.T) {
	c := New()

	var buf bytes.Buffer
	require.ErrorIs(t, c.Encrypt(bytes.NewReader([]byte("x")), &buf), ErrNoKey)
	require.ErrorIs(t, c.Decrypt(bytes.NewReader(make([]byte, 32)), &buf), ErrNoKey)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = c.SealKeyFor(&priv.PublicKey)
	require.ErrorIs(t, err, ErrNoKey)
}

func TestNilStreamAndObjectArguments(t *testing.T) {
	c := newKeyedCrypter(t)

	var buf bytes.Buffer
	require.ErrorIs(t, c.Encrypt(nil, &buf), ErrNilStream)
	require.ErrorIs(t, c.Encrypt(bytes.NewReader(nil), nil), ErrNilStream)
	require.ErrorIs(t, c.Decrypt(nil, &buf), ErrNilStream)
	require.ErrorIs(t, c.EncryptObject(nil, &buf), ErrNilObject)
	require.ErrorIs(t, c.DecryptObject(nil, &struct{}{}), ErrNilStream)
	require.ErrorIs(t, c.DecryptObject(bytes.NewReader(nil), nil), ErrNilObject)

	_, err := c.SealKeyFor(nil)
	require.ErrorIs(t, err, ErrNilObject)
}

func TestClosedCrypterRefusesEverything(t *testing.T) {
	c := newKeyedCrypter(t)
	c.Close()
	c.Close() // second close is a no-op

	var buf bytes.Buffer
	require.ErrorIs(t, c.Encrypt(bytes.NewReader([]byte("x")), &buf), ErrClosed)
	require.ErrorIs(t, c.Decrypt(bytes.NewReader(make([]byte, 32)), &buf), ErrClosed)
	require.ErrorIs(t, c.EncryptObject("x", &buf), ErrClosed)
	require.ErrorIs(t, c.DecryptObject(bytes.NewReader(nil), &buf), ErrClosed)
	require.ErrorIs(t, c.SetKey(make([]byte, KeySize)), ErrClosed)

	_, err := c.GenerateKey()
	require.ErrorIs(t, err, ErrClosed)
}
