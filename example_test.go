package fieldcrypt_test

import (
	"fmt"

	"github.com/ai8future/fieldcrypt"
)

func Example() {
	// Derive the key once at startup (in production, the secret comes from configuration)
	key, err := fieldcrypt.DeriveKey("s3cret")
	if err != nil {
		panic(err)
	}

	codec, err := fieldcrypt.New(key)
	if err != nil {
		panic(err)
	}

	// Encrypt before INSERT: store Ciphertext in name_encrypted, IV in name_iv
	field, err := codec.Encrypt("Juan Pérez")
	if err != nil {
		panic(err)
	}

	// Decrypt after SELECT
	name, err := codec.Decrypt(field)
	if err != nil {
		panic(err)
	}

	fmt.Println(name)
	// Output: Juan Pérez
}

func Example_searchableField() {
	codec, _ := fieldcrypt.NewFromSecret("s3cret")

	// Store the digest in access_code_hash, the pair for display
	sealed, _ := codec.EncryptSearchable("abc-123", fieldcrypt.NormalizeAccessCode)
	fmt.Println("Hash matches:", sealed.Hash == fieldcrypt.Hash("ABC123"))

	// Look the row up by what the patient typed
	cond := fieldcrypt.NewSearchCondition("access_code", " ABC 123 ", 1, fieldcrypt.NormalizeAccessCode)
	fmt.Println("SQL:", cond.SQL)
	fmt.Println("Same digest:", cond.Args[0] == sealed.Hash)

	// Output:
	// Hash matches: true
	// SQL: access_code_hash = $1
	// Same digest: true
}

func Example_safeDecode() {
	codec, _ := fieldcrypt.NewFromSecret("s3cret")

	seeded := "enc_Dra_Maria_Garcia"
	res := codec.SafeDecode(&seeded, nil)
	fmt.Println(res.Kind, res.Value)

	field, _ := codec.Encrypt("Juan Pérez")
	res = codec.SafeDecode(&field.Ciphertext, &field.IV)
	fmt.Println(res.Kind, res.Value)

	legacy := "not-really-ciphertext"
	res = codec.SafeDecode(&legacy, nil)
	fmt.Println(res.Kind, res.Value, res.Degraded())

	res = codec.SafeDecode(nil, nil)
	fmt.Println(res.Kind, res.Ptr() == nil)

	// Output:
	// placeholder Dra Maria Garcia
	// decrypted Juan Pérez
	// raw not-really-ciphertext true
	// null true
}

func Example_resealPlaceholder() {
	codec, _ := fieldcrypt.NewFromSecret("s3cret")

	seeded := fieldcrypt.EncodePlaceholder("Dra Maria Garcia")
	fmt.Println("Needs migration:", fieldcrypt.NeedsMigration(&seeded))

	field, _ := codec.Reseal(&seeded, nil)
	fmt.Println("Needs migration:", fieldcrypt.NeedsMigration(&field.Ciphertext))

	name, _ := codec.Decrypt(*field)
	fmt.Println(name)

	// Output:
	// Needs migration: true
	// Needs migration: false
	// Dra Maria Garcia
}

func Example_jsonEncryption() {
	codec, _ := fieldcrypt.NewFromSecret("s3cret")

	type LabResult struct {
		Test  string  `json:"test"`
		Value float64 `json:"value"`
	}

	field, _ := fieldcrypt.EncryptJSON(codec, LabResult{Test: "hba1c", Value: 6.1})
	result, _ := fieldcrypt.DecryptJSON[LabResult](codec, field)

	fmt.Println(result.Test, result.Value)
	// Output: hba1c 6.1
}
