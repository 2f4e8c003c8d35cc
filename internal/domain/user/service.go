package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/permission"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,63}$`)

// dummyHash is compared against when the username does not exist so that
// unknown and known accounts take the same time to reject.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z8r6Ew5rYxX8b0xGJ1b7kZ1a"

type Service struct {
	users       UserRepository
	tokens      *auth.TokenIssuer
	revocations auth.RevocationStore
	matrix      *permission.Matrix
	tx          db.TxRunner
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(users UserRepository, tokens *auth.TokenIssuer, revocations auth.RevocationStore, matrix *permission.Matrix, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		matrix:      matrix,
		tx:          tx,
		logger:      logger,
		now:         time.Now,
	}
}

func normaliseUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func checkRole(role string) (permission.Role, error) {
	r := permission.Role(strings.ToLower(strings.TrimSpace(role)))
	if !permission.IsRole(r) {
		names := make([]string, len(permission.Roles))
		for i, known := range permission.Roles {
			names[i] = string(known)
		}
		return "", apperr.Validation("role must be one of: %s", strings.Join(names, ", "))
	}
	return r, nil
}

func hash(password string) (string, error) {
	if len(password) < auth.MinPasswordLength {
		return "", apperr.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	return auth.HashPassword(password)
}

func (s *Service) CreateUser(ctx context.Context, req *CreateRequest) (*User, error) {
	username := normaliseUsername(req.Username)
	if !usernamePattern.MatchString(username) {
		return nil, apperr.Validation("username must be 3-64 characters of a-z, 0-9, '.', '_' or '-'")
	}
	role, err := checkRole(req.Role)
	if err != nil {
		return nil, err
	}
	h, err := hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     username,
		PasswordHash: h,
		Role:         role,
		DisplayName:  req.DisplayName,
		StaffID:      req.StaffID,
		Active:       req.Active == nil || *req.Active,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("username %q is taken", username)
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) SearchUsers(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	return s.users.Search(ctx, params, limit, offset)
}

// guardLastAdmin refuses changes that would leave no active admin.
func (s *Service) guardLastAdmin(ctx context.Context, current *User) error {
	if current.Role != permission.RoleAdmin || !current.Active {
		return nil
	}
	n, err := s.users.CountActive(ctx, permission.RoleAdmin)
	if err != nil {
		return err
	}
	if n <= 1 {
		return apperr.Conflict("cannot remove the last active admin")
	}
	return nil
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*User, error) {
	role, err := checkRole(req.Role)
	if err != nil {
		return nil, err
	}
	var out *User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		active := current.Active
		if req.Active != nil {
			active = *req.Active
		}
		if role != permission.RoleAdmin || !active {
			if err := s.guardLastAdmin(ctx, current); err != nil {
				return err
			}
		}
		current.Role = role
		current.DisplayName = req.DisplayName
		current.StaffID = req.StaffID
		current.Active = active
		if err := s.users.Update(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ResetPassword(ctx context.Context, id uuid.UUID, password string) error {
	h, err := hash(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, id, h); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Str("by", auth.UsernameFromContext(ctx)).Msg("password reset")
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if auth.UserIDFromContext(ctx) == id.String() {
		return apperr.Conflict("you cannot delete your own account")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.guardLastAdmin(ctx, current); err != nil {
			return err
		}
		return s.users.Delete(ctx, id)
	})
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	u, err := s.users.GetByUsername(ctx, normaliseUsername(username))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		_ = auth.CheckPassword(dummyHash, password)
		return nil, apperr.Unauthorized("%s", auth.ErrInvalidCredentials.Error())
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, apperr.Unauthorized("%s", err.Error())
	}
	if !u.Active {
		return nil, apperr.Unauthorized("account is disabled")
	}

	roles := []string{string(u.Role)}
	token, claims, err := s.tokens.Issue(u.ID.String(), u.Username, roles)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.users.TouchLogin(ctx, u.ID, at); err != nil {
		s.logger.Warn().Err(err).Str("user", u.Username).Msg("could not record login time")
	} else {
		u.LastLoginAt = &at
	}
	s.logger.Info().Str("user", u.Username).Str("role", string(u.Role)).Msg("login")

	return &LoginResponse{
		Token:       token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        u,
		Permissions: s.matrix.ForRoles(roles),
	}, nil
}

// Logout revokes the token the request was authenticated with.
func (s *Service) Logout(ctx context.Context) error {
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil || claims.ID == "" {
		return apperr.Validation("request was not authenticated with a revocable token")
	}
	expires := s.now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.Subject, expires)
}

// Me describes the caller. Development identities have no account row.
func (s *Service) Me(ctx context.Context) (*Identity, error) {
	roles := auth.RolesFromContext(ctx)
	out := &Identity{
		ID:          auth.UserIDFromContext(ctx),
		Username:    auth.UsernameFromContext(ctx),
		Roles:       roles,
		Permissions: s.matrix.ForRoles(roles),
	}
	if id, err := uuid.Parse(out.ID); err == nil {
		u, err := s.users.GetByID(ctx, id)
		switch {
		case err == nil:
			out.User = u
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}
	return out, nil
}

// EnsureAdmin creates the bootstrap admin account when no active admin
// exists. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	n, err := s.users.CountActive(ctx, permission.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	name := "Administrator"
	u, err := s.CreateUser(ctx, &CreateRequest{Username: username, Password: password, Role: string(permission.RoleAdmin), DisplayName: &name})
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("user", u.Username).Msg("bootstrap admin created")
	return true, nil
}
