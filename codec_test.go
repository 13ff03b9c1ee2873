package fieldcrypt

import (
	"encoding/hex"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *DerivedKey
	otherKey    *DerivedKey
)

// testKeys derives the shared test keys once; scrypt is deliberately slow.
func testKeys(t testing.TB) (*DerivedKey, *DerivedKey) {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = DeriveKey("s3cret")
		if err != nil {
			panic(err)
		}
		otherKey, err = DeriveKey("another-secret")
		if err != nil {
			panic(err)
		}
	})
	return testKey, otherKey
}

func testCodec(t testing.TB, opts ...Option) *Codec {
	t.Helper()
	key, _ := testKeys(t)
	codec, err := New(key, opts...)
	require.NoError(t, err)
	return codec
}

func TestNew_NilKey(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrEncryption)
	require.ErrorIs(t, err, ErrNilKey)
}

func TestNew_ClosedKey(t *testing.T) {
	key, err := DeriveKey("closing")
	require.NoError(t, err)
	key.Close()

	_, err = New(key)
	require.ErrorIs(t, err, ErrNilKey)
}

func TestNew_KeyClosedAfterCodec(t *testing.T) {
	key, err := DeriveKey("independent")
	require.NoError(t, err)
	codec, err := New(key)
	require.NoError(t, err)

	field, err := codec.Encrypt("still works")
	require.NoError(t, err)
	key.Close()

	plaintext, err := codec.Decrypt(field)
	require.NoError(t, err)
	require.Equal(t, "still works", plaintext)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	codec := testCodec(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple text", "hello world"},
		{"empty", ""},
		{"accented", "Juan Pérez"},
		{"unicode", "こんにちは世界"},
		{"placeholder prefix literally", "enc_Dra_Maria_Garcia"},
		{"large text", strings.Repeat("historia clínica ", 1000)},
		{"binary-ish", "\x00\x01\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, err := codec.Encrypt(tt.plaintext)
			require.NoError(t, err)
			require.NotEmpty(t, field.Ciphertext)
			require.NotEmpty(t, field.IV)

			decrypted, err := codec.Decrypt(field)
			require.NoError(t, err)
			require.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestEncrypt_EmptyPlaintextHasCiphertext(t *testing.T) {
	codec := testCodec(t)

	field, err := codec.Encrypt("")
	require.NoError(t, err)

	raw, err := hex.DecodeString(field.Ciphertext)
	require.NoError(t, err)
	require.Len(t, raw, 1+tagSize)
}

func TestEncrypt_TextSafeEncoding(t *testing.T) {
	codec := testCodec(t)

	field, err := codec.Encrypt("Dra María García")
	require.NoError(t, err)

	_, err = hex.DecodeString(field.Ciphertext)
	require.NoError(t, err)
	iv, err := hex.DecodeString(field.IV)
	require.NoError(t, err)
	require.Len(t, iv, nonceSize)
	require.False(t, IsPlaceholder(field.Ciphertext))
}

func TestEncrypt_UniqueIV(t *testing.T) {
	codec := testCodec(t)

	a, err := codec.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := codec.Encrypt("same plaintext")
	require.NoError(t, err)

	require.NotEqual(t, a.IV, b.IV)
	require.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestEncrypt_IVsNeverRepeat(t *testing.T) {
	codec := testCodec(t)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		field, err := codec.Encrypt("x")
		require.NoError(t, err)
		_, dup := seen[field.IV]
		require.False(t, dup, "iv reused at iteration %d", i)
		seen[field.IV] = struct{}{}
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	codec := testCodec(t)

	field, err := codec.Encrypt("Juan Pérez")
	require.NoError(t, err)

	flip := func(h string, bit int) string {
		raw, err := hex.DecodeString(h)
		require.NoError(t, err)
		raw[bit/8] ^= 1 << (bit % 8)
		return hex.EncodeToString(raw)
	}

	ctBits := len(field.Ciphertext) / 2 * 8
	for bit := 0; bit < ctBits; bit++ {
		tampered := EncryptedField{Ciphertext: flip(field.Ciphertext, bit), IV: field.IV}
		_, err := codec.Decrypt(tampered)
		require.ErrorIs(t, err, ErrDecryption, "ciphertext bit %d", bit)
	}

	ivBits := nonceSize * 8
	for bit := 0; bit < ivBits; bit++ {
		tampered := EncryptedField{Ciphertext: field.Ciphertext, IV: flip(field.IV, bit)}
		_, err := codec.Decrypt(tampered)
		require.ErrorIs(t, err, ErrDecryption, "iv bit %d", bit)
	}
}

func TestDecrypt_CompressedTamperDetection(t *testing.T) {
	codec := testCodec(t)

	field, err := codec.Encrypt(strings.Repeat("a", 4096))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(field.Ciphertext, "01"), "expected zstd flag")

	raw, _ := hex.DecodeString(field.Ciphertext)
	raw[0] = flagNoCompression
	_, err = codec.Decrypt(EncryptedField{Ciphertext: hex.EncodeToString(raw), IV: field.IV})
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestDecrypt_WrongKey(t *testing.T) {
	key, other := testKeys(t)
	a, err := New(key)
	require.NoError(t, err)
	b, err := New(other)
	require.NoError(t, err)

	field, err := a.Encrypt("Juan Pérez")
	require.NoError(t, err)

	_, err = b.Decrypt(field)
	require.ErrorIs(t, err, ErrDecryption)
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestDecrypt_MalformedInput(t *testing.T) {
	codec := testCodec(t)
	valid, err := codec.Encrypt("x")
	require.NoError(t, err)

	tests := []struct {
		name  string
		field EncryptedField
	}{
		{"non-hex ciphertext", EncryptedField{Ciphertext: "zz", IV: valid.IV}},
		{"non-hex iv", EncryptedField{Ciphertext: valid.Ciphertext, IV: "not hex"}},
		{"short iv", EncryptedField{Ciphertext: valid.Ciphertext, IV: valid.IV[:10]}},
		{"empty iv", EncryptedField{Ciphertext: valid.Ciphertext, IV: ""}},
		{"short ciphertext", EncryptedField{Ciphertext: "00ab", IV: valid.IV}},
		{"empty ciphertext", EncryptedField{Ciphertext: "", IV: valid.IV}},
		{"uppercase hex ciphertext", EncryptedField{Ciphertext: valid.Ciphertext[:len(valid.Ciphertext)-2] + "AF", IV: valid.IV}},
		{"uppercase hex iv", EncryptedField{Ciphertext: valid.Ciphertext, IV: "AB" + valid.IV[2:]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decrypt(tt.field)
			require.ErrorIs(t, err, ErrDecryption)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestCodec_Closed(t *testing.T) {
	codec := testCodec(t)
	field, err := codec.Encrypt("x")
	require.NoError(t, err)

	codec.Close()

	_, err = codec.Encrypt("x")
	require.ErrorIs(t, err, ErrEncryption)
	require.ErrorIs(t, err, ErrCodecClosed)

	_, err = codec.Decrypt(field)
	require.ErrorIs(t, err, ErrDecryption)
	require.ErrorIs(t, err, ErrCodecClosed)
}

func TestNewFromSecret(t *testing.T) {
	a, err := NewFromSecret("s3cret")
	require.NoError(t, err)
	b := testCodec(t)

	field, err := a.Encrypt("cross-codec")
	require.NoError(t, err)

	plaintext, err := b.Decrypt(field)
	require.NoError(t, err)
	require.Equal(t, "cross-codec", plaintext)

	_, err = NewFromSecret("")
	require.ErrorIs(t, err, ErrKeyDerivation)
}

func TestPackageLevelEncryptDecrypt(t *testing.T) {
	key, _ := testKeys(t)

	field, err := Encrypt("Juan Pérez", key)
	require.NoError(t, err)

	plaintext, err := Decrypt(field, key)
	require.NoError(t, err)
	require.Equal(t, "Juan Pérez", plaintext)

	_, err = Encrypt("x", nil)
	require.ErrorIs(t, err, ErrEncryption)

	_, err = Decrypt(field, nil)
	require.ErrorIs(t, err, ErrDecryption)
}

func TestEndToEnd_SecretMismatch(t *testing.T) {
	key, err := DeriveKey("s3cret")
	require.NoError(t, err)

	stored, err := Encrypt("Juan Pérez", key)
	require.NoError(t, err)

	sameKey, err := DeriveKey("s3cret")
	require.NoError(t, err)
	plaintext, err := Decrypt(stored, sameKey)
	require.NoError(t, err)
	require.Equal(t, "Juan Pérez", plaintext)

	wrongKey, err := DeriveKey("not-the-secret")
	require.NoError(t, err)
	_, err = Decrypt(stored, wrongKey)
	require.ErrorIs(t, err, ErrDecryption)
}

func TestCodec_ConcurrentUse(t *testing.T) {
	codec := testCodec(t)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			field, err := codec.Encrypt("concurrent")
			if err != nil {
				errs <- err
				return
			}
			if _, err := codec.Decrypt(field); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
