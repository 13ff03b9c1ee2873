package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/hengadev/errsx"

	"github.com/ai8future/fieldcrypt"
	"github.com/ai8future/fieldcrypt/internal/logger"
)

// PatientRepository stores patient records with every sensitive field
// encrypted through a fieldcrypt.Codec.
//
// Column layout:
//   - name, email, phone: X_encrypted + X_iv
//   - access_code: X_hash + X_encrypted + X_iv (displayed and searched)
//   - national_id: X_hash only (searched, never displayed)
type PatientRepository struct {
	db     *DB
	codec  *fieldcrypt.Codec
	logger *logger.Logger
}

// NewPatientRepository constructs a PatientRepository. The codec is not owned
// by the repository; closing it is up to the caller.
func NewPatientRepository(db *DB, codec *fieldcrypt.Codec, log *logger.Logger) *PatientRepository {
	if log == nil {
		log = db.logger
	}
	return &PatientRepository{
		db:     db,
		codec:  codec,
		logger: log.Component("patients"),
	}
}

// Create encrypts in and inserts it as a new row.
//
// Every field is encrypted before anything is written. If any field fails,
// the errors are reported together under ErrSealingRecord and no row is inserted.
func (r *PatientRepository) Create(ctx context.Context, in PatientInput) (*Patient, error) {
	var errs errsx.Map

	name, err := r.codec.EncryptPtr(in.Name)
	if err != nil {
		errs.Set(fieldName, err)
	}
	email, err := r.codec.EncryptPtr(in.Email)
	if err != nil {
		errs.Set(fieldEmail, err)
	}
	phone, err := r.codec.EncryptPtr(in.Phone)
	if err != nil {
		errs.Set(fieldPhone, err)
	}

	var accessCode *fieldcrypt.SealedField
	if in.AccessCode != nil {
		accessCode, err = r.codec.EncryptSearchable(*in.AccessCode, fieldcrypt.NormalizeAccessCode)
		if err != nil {
			errs.Set(fieldAccessCode, err)
		}
	}

	if err := errs.AsError(); err != nil {
		r.logger.Err(err).
			Str("func", "PatientRepository.Create").
			Msg("failed to encrypt patient fields")
		return nil, fmt.Errorf("%w: %w", ErrSealingRecord, err)
	}

	row := insertValues{
		id:         uuid.New(),
		createdAt:  time.Now().UTC(),
		name:       name,
		email:      email,
		phone:      phone,
		nationalID: hashPtr(in.NationalID, fieldcrypt.NormalizeIdentity),
	}
	if accessCode != nil {
		row.accessCode = &accessCode.EncryptedField
		row.accessCodeHash = &accessCode.Hash
	}

	if err := r.insert(ctx, "PatientRepository.Create", row); err != nil {
		return nil, err
	}

	decoded := make(map[string]fieldcrypt.DecodeKind, len(encryptedFields))
	for name, v := range map[string]*string{
		fieldName:       in.Name,
		fieldEmail:      in.Email,
		fieldPhone:      in.Phone,
		fieldAccessCode: in.AccessCode,
	} {
		decoded[name] = fieldcrypt.DecodeDecrypted
		if v == nil {
			decoded[name] = fieldcrypt.DecodeNull
		}
	}

	return &Patient{
		ID:         row.id,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		AccessCode: in.AccessCode,
		CreatedAt:  row.createdAt,
		Decoded:    decoded,
	}, nil
}

// SeedPlaceholder inserts a row in the seed format: displayable fields are
// stored as placeholders with no iv. Hash columns hold real digests so
// lookups work before the row is migrated.
func (r *PatientRepository) SeedPlaceholder(ctx context.Context, in PatientInput) (uuid.UUID, error) {
	row := insertValues{
		id:             uuid.New(),
		createdAt:      time.Now().UTC(),
		name:           placeholderField(in.Name),
		email:          placeholderField(in.Email),
		phone:          placeholderField(in.Phone),
		accessCode:     placeholderField(in.AccessCode),
		accessCodeHash: hashPtr(in.AccessCode, fieldcrypt.NormalizeAccessCode),
		nationalID:     hashPtr(in.NationalID, fieldcrypt.NormalizeIdentity),
	}

	if err := r.insert(ctx, "PatientRepository.SeedPlaceholder", row); err != nil {
		return uuid.Nil, err
	}
	return row.id, nil
}

// Get returns the patient with the given id, or ErrNotFound.
func (r *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.findOne(ctx, "PatientRepository.Get", sq.Eq{"id": id.String()})
}

// FindByAccessCode looks a patient up by access code. The code is normalized
// (trimmed, upper-cased, spaces and dashes removed) before hashing.
func (r *PatientRepository) FindByAccessCode(ctx context.Context, code string) (*Patient, error) {
	return r.findOne(ctx, "PatientRepository.FindByAccessCode",
		fieldcrypt.HashEq(fieldAccessCode, code, fieldcrypt.NormalizeAccessCode))
}

// FindByNationalID returns every patient whose national id hash matches.
func (r *PatientRepository) FindByNationalID(ctx context.Context, nationalID string) ([]Patient, error) {
	query := r.db.builder.
		Select(patientColumns...).
		From(patientsTable).
		Where(fieldcrypt.HashEq(fieldNationalID, nationalID, fieldcrypt.NormalizeIdentity)).
		OrderBy("created_at", "id")

	return r.query(ctx, "PatientRepository.FindByNationalID", query)
}

// List returns patients ordered by creation time. limit 0 means no limit.
func (r *PatientRepository) List(ctx context.Context, limit, offset uint64) ([]Patient, error) {
	query := r.db.builder.
		Select(patientColumns...).
		From(patientsTable).
		OrderBy("created_at", "id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return r.query(ctx, "PatientRepository.List", query)
}

// MigratePlaceholders re-encrypts every placeholder field with the codec,
// inside one transaction. Fields that are already real ciphertext are left
// untouched. Returns the number of rows updated.
func (r *PatientRepository) MigratePlaceholders(ctx context.Context) (int, error) {
	log := r.logger.With().Str("func", "PatientRepository.MigratePlaceholders").Logger()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Msg("failed to begin transaction")
		return 0, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var pending sq.Or
	for _, name := range encryptedFields {
		pending = append(pending, sq.Like{fieldcrypt.EncryptedColumn(name): fieldcrypt.PlaceholderPrefix + "%"})
	}

	selectSQL, args, err := r.db.builder.
		Select(patientColumns...).
		From(patientsTable).
		Where(pending).
		ToSql()
	if err != nil {
		log.Err(err).Msg("failed to build select query")
		return 0, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	rows, err := tx.QueryContext(ctx, selectSQL, args...)
	if err != nil {
		log.Err(err).Msg("failed to select placeholder rows")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	var candidates []*patientRow
	for rows.Next() {
		row := newPatientRow()
		if err := rows.Scan(row.scanTargets()...); err != nil {
			rows.Close()
			log.Err(err).Msg("failed to scan placeholder row")
			return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		candidates = append(candidates, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		log.Err(err).Msg("error occurred during rows iteration")
		return 0, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	rows.Close()

	migrated := 0
	for idx, row := range candidates {
		update := r.db.builder.Update(patientsTable).Where(sq.Eq{"id": row.ID})
		changed := 0

		for _, name := range encryptedFields {
			pair := row.Pairs[name]
			if !fieldcrypt.NeedsMigration(pair.Ciphertext) {
				continue
			}
			field, err := r.codec.Reseal(pair.Ciphertext, pair.IV)
			if err != nil {
				log.Err(err).Str("patient_id", row.ID).Str("field", name).Msg("failed to reseal placeholder")
				return 0, fmt.Errorf("%w: %s: %w", ErrSealingRecord, name, err)
			}
			update = update.
				Set(fieldcrypt.EncryptedColumn(name), field.Ciphertext).
				Set(fieldcrypt.IVColumn(name), field.IV)
			changed++
		}
		if changed == 0 {
			continue
		}

		updateSQL, args, err := update.ToSql()
		if err != nil {
			log.Err(err).Str("patient_id", row.ID).Msg("failed to build update query")
			return 0, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
		}

		log.Debug().
			Int("iteration", idx+1).
			Int("total", len(candidates)).
			Str("patient_id", row.ID).
			Int("fields", changed).
			Msg("migrating placeholder fields in transaction")

		if _, err := tx.ExecContext(ctx, updateSQL, args...); err != nil {
			log.Err(err).Str("patient_id", row.ID).Msg("failed to execute update query")
			return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		migrated++
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Msg("failed to commit transaction")
		return 0, fmt.Errorf("%w: %w", ErrCommittingTransaction, err)
	}

	log.Info().Int("rows", migrated).Msg("placeholder migration finished")
	return migrated, nil
}

type insertValues struct {
	id             uuid.UUID
	createdAt      time.Time
	name           *fieldcrypt.EncryptedField
	email          *fieldcrypt.EncryptedField
	phone          *fieldcrypt.EncryptedField
	accessCode     *fieldcrypt.EncryptedField
	accessCodeHash *string
	nationalID     *string
}

func (r *PatientRepository) insert(ctx context.Context, fn string, v insertValues) error {
	nameCT, nameIV := pairColumns(v.name)
	emailCT, emailIV := pairColumns(v.email)
	phoneCT, phoneIV := pairColumns(v.phone)
	codeCT, codeIV := pairColumns(v.accessCode)

	query, args, err := r.db.builder.
		Insert(patientsTable).
		Columns(
			"id",
			fieldcrypt.EncryptedColumn(fieldName), fieldcrypt.IVColumn(fieldName),
			fieldcrypt.EncryptedColumn(fieldEmail), fieldcrypt.IVColumn(fieldEmail),
			fieldcrypt.EncryptedColumn(fieldPhone), fieldcrypt.IVColumn(fieldPhone),
			fieldcrypt.HashColumn(fieldAccessCode),
			fieldcrypt.EncryptedColumn(fieldAccessCode), fieldcrypt.IVColumn(fieldAccessCode),
			fieldcrypt.HashColumn(fieldNationalID),
			"created_at",
		).
		Values(
			v.id.String(),
			nameCT, nameIV,
			emailCT, emailIV,
			phoneCT, phoneIV,
			v.accessCodeHash,
			codeCT, codeIV,
			v.nationalID,
			v.createdAt,
		).
		ToSql()
	if err != nil {
		r.logger.Err(err).Str("func", fn).Msg("failed to build insert query")
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("func", fn).Str("patient_id", v.id.String()).Msg("failed to insert patient")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	r.logger.Debug().Str("func", fn).Str("patient_id", v.id.String()).Msg("patient inserted")
	return nil
}

func (r *PatientRepository) findOne(ctx context.Context, fn string, pred sq.Sqlizer) (*Patient, error) {
	query, args, err := r.db.builder.
		Select(patientColumns...).
		From(patientsTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		r.logger.Err(err).Str("func", fn).Msg("failed to build select query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	row := newPatientRow()
	err = r.db.QueryRowContext(ctx, query, args...).Scan(row.scanTargets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Err(err).Str("func", fn).Msg("failed to scan patient row")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return r.decode(fn, row)
}

func (r *PatientRepository) query(ctx context.Context, fn string, builder sq.SelectBuilder) ([]Patient, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		r.logger.Err(err).Str("func", fn).Msg("failed to build select query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", fn).Msg("failed to execute select query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	patients := make([]Patient, 0, 16)
	for rows.Next() {
		row := newPatientRow()
		if err := rows.Scan(row.scanTargets()...); err != nil {
			r.logger.Err(err).Str("func", fn).Msg("failed to scan patient row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		p, err := r.decode(fn, row)
		if err != nil {
			return nil, err
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Err(err).Str("func", fn).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return patients, nil
}

// decode materializes a stored row. Undecryptable fields never fail the read;
// they are logged by name and reported through Patient.Degraded.
func (r *PatientRepository) decode(fn string, row *patientRow) (*Patient, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		r.logger.Err(err).Str("func", fn).Msg("stored patient id is not a uuid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	p := &Patient{
		ID:        id,
		CreatedAt: row.CreatedAt,
		Decoded:   make(map[string]fieldcrypt.DecodeKind, len(encryptedFields)),
	}
	targets := map[string]**string{
		fieldName:       &p.Name,
		fieldEmail:      &p.Email,
		fieldPhone:      &p.Phone,
		fieldAccessCode: &p.AccessCode,
	}

	for _, name := range encryptedFields {
		pair := row.Pairs[name]
		res := r.codec.SafeDecode(pair.Ciphertext, pair.IV)
		*targets[name] = res.Ptr()
		p.Decoded[name] = res.Kind

		if res.Degraded() {
			r.logger.Warn().
				Str("func", fn).
				Str("patient_id", row.ID).
				Str("field", name).
				Stringer("decode", res.Kind).
				Msg("patient field could not be decrypted")
		}
	}

	return p, nil
}

// pairColumns stores an empty iv as NULL.
func pairColumns(f *fieldcrypt.EncryptedField) (ciphertext, iv *string) {
	ciphertext, iv = f.Columns()
	if iv != nil && *iv == "" {
		iv = nil
	}
	return ciphertext, iv
}

func placeholderField(s *string) *fieldcrypt.EncryptedField {
	if s == nil {
		return nil
	}
	return &fieldcrypt.EncryptedField{Ciphertext: fieldcrypt.EncodePlaceholder(*s)}
}

func hashPtr(s *string, norm fieldcrypt.Normalizer) *string {
	if s == nil {
		return nil
	}
	h := fieldcrypt.HashNormalized(*s, norm)
	return &h
}
