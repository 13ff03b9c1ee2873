package fieldcrypt

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// maxParamNumber is the PostgreSQL maximum parameter number.
const maxParamNumber = 65535

// Column suffixes of the two-column storage convention.
const (
	SuffixEncrypted = "_encrypted"
	SuffixIV        = "_iv"
	SuffixHash      = "_hash"
)

// EncryptedColumn returns the ciphertext column name for logical field x.
func EncryptedColumn(x string) string { return x + SuffixEncrypted }

// IVColumn returns the iv column name for logical field x.
func IVColumn(x string) string { return x + SuffixIV }

// HashColumn returns the digest column name for logical field y.
func HashColumn(y string) string { return y + SuffixHash }

// isValidColumnName checks if a column name is safe for SQL interpolation.
// Must start with letter or underscore, followed by alphanumeric/underscore.
func isValidColumnName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		digit := r >= '0' && r <= '9'
		if i == 0 && !letter {
			return false
		}
		if !letter && !digit {
			return false
		}
	}
	return true
}

// SearchCondition holds a SQL WHERE clause fragment and its arguments for an
// equality lookup on a hash column.
type SearchCondition struct {
	SQL  string // SQL fragment like "access_code_hash = $1"
	Args []any
}

// NewSearchCondition builds "{column}_hash = $n" for plaintext.
//
// paramOffset specifies the parameter number to use. Use this when composing
// with other WHERE conditions.
//
// Example:
//
//	cond := fieldcrypt.NewSearchCondition("access_code", code, 1, fieldcrypt.NormalizeAccessCode)
//	query := fmt.Sprintf("SELECT id FROM patients WHERE %s", cond.SQL)
//	rows, _ := db.Query(query, cond.Args...)
func NewSearchCondition(column, plaintext string, paramOffset int, norm Normalizer) *SearchCondition {
	if !isValidColumnName(column) {
		panic("fieldcrypt: invalid column name (must start with letter/underscore, contain only alphanumeric/underscore)")
	}
	if paramOffset < 1 || paramOffset > maxParamNumber {
		panic(fmt.Sprintf("fieldcrypt: invalid paramOffset (must be 1-%d)", maxParamNumber))
	}

	return &SearchCondition{
		SQL:  fmt.Sprintf("%s = $%d", HashColumn(column), paramOffset),
		Args: []any{HashNormalized(plaintext, norm)},
	}
}

// HashEq returns a squirrel equality predicate on the hash column of column.
//
// Example:
//
//	query, args, err := sq.Select("id").From("patients").
//	    Where(fieldcrypt.HashEq("national_id", id, fieldcrypt.NormalizeIdentity)).
//	    PlaceholderFormat(sq.Dollar).ToSql()
func HashEq(column, plaintext string, norm Normalizer) sq.Eq {
	if !isValidColumnName(column) {
		panic("fieldcrypt: invalid column name (must start with letter/underscore, contain only alphanumeric/underscore)")
	}
	return sq.Eq{HashColumn(column): HashNormalized(plaintext, norm)}
}
