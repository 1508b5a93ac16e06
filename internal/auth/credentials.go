package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"go-ceremony-portal/internal/model"
)

// StaffDirectory is the read side of the staff store used by the auth core.
type StaffDirectory interface {
	FindByID(ctx context.Context, id int64) (model.StaffUser, error)
	FindByUsername(ctx context.Context, username string) (model.StaffUser, error)
}

// GraduateDirectory is the read side of the graduate store used by the auth core.
type GraduateDirectory interface {
	FindByID(ctx context.Context, id int64) (model.Graduate, error)
	FindByStudentID(ctx context.Context, studentID string) (model.Graduate, error)
}

// dummyHash is compared against when the username does not exist so that a
// miss costs about as much as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ceremony-portal-dummy"), bcrypt.DefaultCost)

type Verifier struct {
	staff     StaffDirectory
	graduates GraduateDirectory
}

func NewVerifier(staff StaffDirectory, graduates GraduateDirectory) *Verifier {
	return &Verifier{staff: staff, graduates: graduates}
}

// VerifyStaff checks a username/password pair. An unknown user, a user
// without a stored hash and a wrong password all return
// model.ErrInvalidCredentials.
func (v *Verifier) VerifyStaff(ctx context.Context, username string, password string) (Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Principal{}, model.ErrInvalidCredentials
	}

	user, err := v.staff.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Principal{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return Principal{}, fmt.Errorf("verify staff credentials: %w", err)
	}

	if user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Principal{}, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Principal{}, model.ErrInvalidCredentials
	}

	return StaffPrincipal(user), nil
}

// VerifyGraduate checks a student ID against the citizen ID or passport
// number on record. These are low-entropy identifiers stored in plain text;
// graduate sessions are a weaker assurance tier than staff sessions.
func (v *Verifier) VerifyGraduate(ctx context.Context, studentID string, secret string) (Principal, error) {
	studentID = strings.TrimSpace(studentID)
	secret = strings.TrimSpace(secret)
	if studentID == "" || secret == "" {
		return Principal{}, model.ErrInvalidCredentials
	}

	graduate, err := v.graduates.FindByStudentID(ctx, studentID)
	if errors.Is(err, model.ErrGraduateNotFound) {
		return Principal{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return Principal{}, fmt.Errorf("verify graduate credentials: %w", err)
	}

	if !secretMatches(graduate.CitizenID, secret) && !secretMatches(graduate.PassportNo, secret) {
		return Principal{}, model.ErrInvalidCredentials
	}

	return GraduatePrincipal(graduate), nil
}

func secretMatches(stored string, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
