package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/ai8future/fieldcrypt"
)

// PatientInput is the plaintext of a patient record on the write path.
// Nil fields are stored as NULL.
type PatientInput struct {
	Name       *string
	Email      *string
	Phone      *string
	AccessCode *string
	NationalID *string
}

// Patient is a decoded patient record.
type Patient struct {
	ID         uuid.UUID `json:"id"`
	Name       *string   `json:"name"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	AccessCode *string   `json:"access_code"`
	CreatedAt  time.Time `json:"created_at"`

	// Decoded records how each field was materialized, keyed by logical field name.
	Decoded map[string]fieldcrypt.DecodeKind `json:"-"`
}

// Degraded lists the fields that could not be decrypted.
func (p *Patient) Degraded() []string {
	var fields []string
	for _, name := range encryptedFields {
		if kind, ok := p.Decoded[name]; ok && (kind == fieldcrypt.DecodeRaw || kind == fieldcrypt.DecodeFailed) {
			fields = append(fields, name)
		}
	}
	return fields
}

// Logical encrypted fields of the patients table, in column order.
const (
	fieldName       = "name"
	fieldEmail      = "email"
	fieldPhone      = "phone"
	fieldAccessCode = "access_code"
	fieldNationalID = "national_id"
)

var encryptedFields = []string{fieldName, fieldEmail, fieldPhone, fieldAccessCode}

const patientsTable = "patients"

// patientColumns is the SELECT list; patientRow.scanTargets follows the same order.
var patientColumns = []string{
	"id",
	fieldcrypt.EncryptedColumn(fieldName), fieldcrypt.IVColumn(fieldName),
	fieldcrypt.EncryptedColumn(fieldEmail), fieldcrypt.IVColumn(fieldEmail),
	fieldcrypt.EncryptedColumn(fieldPhone), fieldcrypt.IVColumn(fieldPhone),
	fieldcrypt.EncryptedColumn(fieldAccessCode), fieldcrypt.IVColumn(fieldAccessCode),
	"created_at",
}

// patientRow is the raw stored form of a patient.
type patientRow struct {
	ID        string
	Pairs     map[string]*storedPair
	CreatedAt time.Time
}

type storedPair struct {
	Ciphertext *string
	IV         *string
}

func newPatientRow() *patientRow {
	pairs := make(map[string]*storedPair, len(encryptedFields))
	for _, name := range encryptedFields {
		pairs[name] = &storedPair{}
	}
	return &patientRow{Pairs: pairs}
}

func (r *patientRow) scanTargets() []any {
	targets := []any{&r.ID}
	for _, name := range encryptedFields {
		p := r.Pairs[name]
		targets = append(targets, &p.Ciphertext, &p.IV)
	}
	return append(targets, &r.CreatedAt)
}
