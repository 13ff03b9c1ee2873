// Package fieldcrypt provides field-level encryption for relational records
// of a hospital management system, with hash columns for equality search and
// a tolerant read path for seed data.
//
// # Encryption
//
// Each sensitive field X is stored as two text columns, X_encrypted and X_iv.
// The package uses XChaCha20-Poly1305 with a random 24-byte nonce (the iv),
// so tampering and wrong keys are detected at decrypt time. The key is derived
// once from the operator secret with scrypt followed by HKDF-SHA256.
//
// # Basic Usage
//
//	key, err := fieldcrypt.DeriveKey(secret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	codec, err := fieldcrypt.New(key)
//
//	// Encrypt (for INSERT/UPDATE)
//	field, err := codec.Encrypt("Juan Pérez")
//	// field.Ciphertext -> name_encrypted, field.IV -> name_iv
//
//	// Decrypt
//	name, err := codec.Decrypt(field)
//
// # Searchable Fields
//
// Fields that must be looked up by equality also store an unkeyed SHA-256
// digest in Y_hash:
//
//	sealed, _ := codec.EncryptSearchable(code, fieldcrypt.NormalizeAccessCode)
//	// sealed.Hash -> access_code_hash
//
//	cond := fieldcrypt.NewSearchCondition("access_code", input, 1, fieldcrypt.NormalizeAccessCode)
//	query := fmt.Sprintf("SELECT id FROM patients WHERE %s", cond.SQL)
//
// # Reading Stored Values
//
// SafeDecode serves three data states from one read path: seed placeholders
// ("enc_" followed by the value with spaces as underscores), real ciphertext,
// and rows that cannot be decrypted. The last ones are returned raw by default,
// tagged DecodeRaw so callers can log or flag them. WithStrictDecode turns them
// into DecodeFailed with no value.
//
//	res := codec.SafeDecode(row.NameEncrypted, row.NameIV)
//	if res.Degraded() {
//	    log.Warn().Err(res.Err).Msg("degraded read")
//	}
//
// # NULL Handling
//
// NULL values are preserved: SafeDecode(nil, ...) is DecodeNull, EncryptPtr(nil)
// returns nil. Empty strings are encrypted like any other value.
//
// # Configuration
//
// The secret is injected through a SecretProvider and ResolveSecret. The
// built-in FallbackSecret is only accepted in the development environment.
package fieldcrypt
