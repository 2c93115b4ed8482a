package db

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

// FindOrCreateUserByPhone inserts a phone-only user or returns the existing
// one. The no-op update makes RETURNING yield the row in both cases.
func (s *DB) FindOrCreateUserByPhone(ctx context.Context, newID int64, phone string) (_ *entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "FindOrCreateUserByPhone")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		INSERT INTO identity_users (id, phone, full_name)
		VALUES ($1, $2, '')
		ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING `+principalColumns(entity.VariantUser), newID, phone)

	p, err := scanPrincipal(row, entity.VariantUser)
	if err != nil {
		return nil, s.mapError(err)
	}

	return p, nil
}

func (s *DB) CreateAdmin(ctx context.Context, in entity.NewAdmin) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAdmin")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO identity_admins (id, full_name, email, phone, role, gender, designation,
			department, employee_id, password_hash, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)`,
		in.ID, in.FullName, in.Email, in.Phone, int16(in.Role), string(in.Gender), in.Designation,
		in.Department, in.EmployeeID, in.PasswordHash)

	return s.mapError(err)
}

func (s *DB) CreateUser(ctx context.Context, in entity.NewUser) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO identity_users (id, full_name, phone, email, user_type, pan_number, admin_id,
			password_hash, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)`,
		in.ID, in.FullName, in.Phone, in.Email, int16(in.UserType), in.PANNumber, in.AdminID, in.PasswordHash)

	return s.mapError(err)
}
