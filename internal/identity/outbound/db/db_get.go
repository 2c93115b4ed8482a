package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

func (s *DB) FindPrincipalByPhone(ctx context.Context, v entity.Variant, phone string) (_ *entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "FindPrincipalByPhone")
	defer func() { s.endSpan(span, err) }()

	return s.findPrincipal(ctx, v, "phone", phone)
}

func (s *DB) FindPrincipalByEmail(ctx context.Context, v entity.Variant, email string) (_ *entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "FindPrincipalByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.findPrincipal(ctx, v, "email", email)
}

func (s *DB) FindPrincipalByID(ctx context.Context, v entity.Variant, id int64) (_ *entity.Principal, err error) {
	ctx, span := s.startSpan(ctx, "FindPrincipalByID")
	defer func() { s.endSpan(span, err) }()

	return s.findPrincipal(ctx, v, "id", id)
}

func (s *DB) findPrincipal(ctx context.Context, v entity.Variant, column string, arg any) (*entity.Principal, error) {
	tbl, err := table(v)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + principalColumns(v) + " FROM " + tbl + " WHERE " + column + " = $1"
	p, err := scanPrincipal(s.conn.QueryRow(ctx, query, arg), v)
	if err != nil {
		return nil, s.mapError(err)
	}

	return p, nil
}

func (s *DB) ListAdminsByRoles(ctx context.Context, roles []entity.Role) (_ []entity.AdminSummary, err error) {
	ctx, span := s.startSpan(ctx, "ListAdminsByRoles")
	defer func() { s.endSpan(span, err) }()

	ids := make([]int16, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, int16(r))
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, full_name, email, phone, role, COALESCE(designation, ''),
			COALESCE(department, ''), COALESCE(employee_id, ''), created_at
		FROM identity_admins
		WHERE role = ANY($1)
		ORDER BY created_at DESC, id DESC`, ids)
	if err != nil {
		return nil, s.mapError(err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.AdminSummary, error) {
		var (
			a    entity.AdminSummary
			role int16
		)
		err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &role, &a.Designation,
			&a.Department, &a.EmployeeID, &a.CreatedAt)
		a.Role = entity.Role(role)
		return a, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return result, nil
}

func (s *DB) ListUsers(ctx context.Context) (_ []entity.UserSummary, err error) {
	ctx, span := s.startSpan(ctx, "ListUsers")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, full_name, COALESCE(email, ''), phone, COALESCE(user_type, 0), is_verified,
			COALESCE(profile_logo, ''), admin_id, created_at
		FROM identity_users
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, s.mapError(err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.UserSummary, error) {
		var (
			u        entity.UserSummary
			userType int16
		)
		err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &userType, &u.IsVerified,
			&u.ProfileLogo, &u.AdminID, &u.CreatedAt)
		u.UserType = entity.UserType(userType)
		return u, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return result, nil
}
