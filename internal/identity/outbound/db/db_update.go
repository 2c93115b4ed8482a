package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// SetPendingOTP overwrites the slot, which kills any earlier code, and starts
// a new cycle with is_verified reset.
func (s *DB) SetPendingOTP(ctx context.Context, v entity.Variant, id int64, otp entity.PendingOTP) (err error) {
	ctx, span := s.startSpan(ctx, "SetPendingOTP")
	defer func() { s.endSpan(span, err) }()

	tbl, err := table(v)
	if err != nil {
		return err
	}

	tag, err := s.conn.Exec(ctx, `
		UPDATE `+tbl+`
		SET otp_hash = $2, otp_expires_at = $3, otp_attempts = 0, is_verified = FALSE, updated_at = NOW()
		WHERE id = $1`, id, otp.CodeHash, otp.ExpiresAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// ConsumePendingOTP clears the slot only if it still holds codeHash and is
// alive at now. Concurrent callers race on the row; one wins.
func (s *DB) ConsumePendingOTP(ctx context.Context, v entity.Variant, id int64, codeHash string, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumePendingOTP")
	defer func() { s.endSpan(span, err) }()

	tbl, err := table(v)
	if err != nil {
		return false, err
	}

	tag, err := s.conn.Exec(ctx, `
		UPDATE `+tbl+`
		SET otp_hash = NULL, otp_expires_at = NULL, otp_attempts = 0, is_verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND otp_hash = $2 AND otp_expires_at >= $3`, id, codeHash, now)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// IncrementOTPAttempts returns the new mismatch count, or 0 when the slot no
// longer holds codeHash.
func (s *DB) IncrementOTPAttempts(ctx context.Context, v entity.Variant, id int64, codeHash string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "IncrementOTPAttempts")
	defer func() { s.endSpan(span, err) }()

	tbl, err := table(v)
	if err != nil {
		return 0, err
	}

	rows, err := s.conn.Query(ctx, `
		UPDATE `+tbl+`
		SET otp_attempts = otp_attempts + 1, updated_at = NOW()
		WHERE id = $1 AND otp_hash = $2
		RETURNING otp_attempts`, id, codeHash)
	if err != nil {
		return 0, s.mapError(err)
	}
	defer rows.Close()

	attempts := 0
	if rows.Next() {
		var n int32
		if err := rows.Scan(&n); err != nil {
			return 0, s.mapError(err)
		}
		attempts = int(n)
	}

	return attempts, s.mapError(rows.Err())
}

func (s *DB) ClearPendingOTP(ctx context.Context, v entity.Variant, id int64, codeHash string) (err error) {
	ctx, span := s.startSpan(ctx, "ClearPendingOTP")
	defer func() { s.endSpan(span, err) }()

	tbl, err := table(v)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `
		UPDATE `+tbl+`
		SET otp_hash = NULL, otp_expires_at = NULL, otp_attempts = 0, updated_at = NOW()
		WHERE id = $1 AND otp_hash = $2`, id, codeHash)

	return s.mapError(err)
}

func (s *DB) CompleteUserProfile(ctx context.Context, in entity.UserProfile) (err error) {
	ctx, span := s.startSpan(ctx, "CompleteUserProfile")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE identity_users
		SET full_name = $2, email = $3, user_type = $4, gender = $5, dob_or_incorporation = $6,
			gst_details = $7, aadhaar_number = $8, pan_number = $9, address_line = $10, state = $11,
			city = $12, pincode = $13, address_proof = $14, identity_proof = $15, profile_logo = $16,
			password_hash = $17, is_verified = TRUE, updated_at = NOW()
		WHERE id = $1`,
		in.UserID, in.FullName, in.Email, int16(in.UserType), string(in.Gender), in.DOBOrIncorporation,
		in.GSTDetails, in.AadhaarNumber, in.PANNumber, in.AddressLine, in.State,
		in.City, in.Pincode, in.AddressProof, in.IdentityProof, in.ProfileLogo,
		in.PasswordHash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the hash. Admins also get password_changed_at.
func (s *DB) UpdatePassword(ctx context.Context, v entity.Variant, id int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePassword")
	defer func() { s.endSpan(span, err) }()

	tbl, err := table(v)
	if err != nil {
		return err
	}

	set := "password_hash = $2, updated_at = NOW()"
	if v == entity.VariantAdmin {
		set += ", password_changed_at = NOW()"
	}

	tag, err := s.conn.Exec(ctx, "UPDATE "+tbl+" SET "+set+" WHERE id = $1", id, hash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
