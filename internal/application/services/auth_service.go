package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/tsuki42/reddit-clone/internal/application/common"
	"github.com/tsuki42/reddit-clone/internal/application/validation"
	"github.com/tsuki42/reddit-clone/internal/domain/entities"
	"github.com/tsuki42/reddit-clone/internal/domain/repositories"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/credentials"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/events"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/kv"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/mail"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/ratelimit"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/session"
)

// ResetTokenTTL bounds how long a password-reset link stays valid.
const ResetTokenTTL = 72 * time.Hour

// errs is the oops builder for infrastructure failures. Business outcomes
// never travel as Go errors; they become FieldErrors in the result envelope.
var errs = oops.Code("infrastructure").In("auth")

// AuthService orchestrates registration, login, logout and credential
// recovery. Each method is a stateless unit of work: all durability and
// mutual exclusion is delegated to the stores.
type AuthService struct {
	users       repositories.UserRepository
	tokens      kv.Store
	hasher      credentials.Hasher
	mailer      mail.Mailer
	limiter     *ratelimit.PerKey
	publisher   events.Publisher
	rules       validation.RegisterRules
	frontendURL string
	logger      *slog.Logger
}

func NewAuthService(
	users repositories.UserRepository,
	tokens kv.Store,
	hasher credentials.Hasher,
	mailer mail.Mailer,
	limiter *ratelimit.PerKey,
	publisher events.Publisher,
	rules validation.RegisterRules,
	frontendURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		mailer:      mailer,
		limiter:     limiter,
		publisher:   publisher,
		rules:       rules,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Register creates the account and logs the caller in as a side effect.
func (s *AuthService) Register(ctx context.Context, sess *session.Session, input validation.RegisterInput) (*common.UserResult, error) {
	if fieldErrs := s.rules(input); len(fieldErrs) > 0 {
		return common.Fail(fieldErrs...), nil
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, errs.With("op", "register").Wrapf(err, "hash password")
	}

	user, err := s.users.Create(ctx, entities.NewUser(input.Username, input.Email, hash))
	if errors.Is(err, repositories.ErrDuplicate) {
		return common.Fail(common.FieldError{
			Field:   "username",
			Message: "username already taken",
		}), nil
	}
	if err != nil {
		return nil, errs.With("op", "register").Wrapf(err, "insert user")
	}

	if err := sess.SetUserID(ctx, formatUserID(user.ID)); err != nil {
		return nil, errs.With("op", "register").Wrapf(err, "set session")
	}

	s.publish(ctx, events.SubjectUserRegistered, user)
	return common.OK(user), nil
}

// Login authenticates by email when the input contains an '@', otherwise by
// username.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, usernameOrEmail, password string) (*common.UserResult, error) {
	user, err := s.lookup(ctx, usernameOrEmail)
	if err != nil {
		return nil, errs.With("op", "login").Wrapf(err, "find user")
	}
	if user == nil {
		return common.Fail(common.FieldError{
			Field:   "usernameOrEmail",
			Message: "that account doesn't exist",
		}), nil
	}

	if err := s.hasher.Verify(user.Password, password); err != nil {
		return common.Fail(common.FieldError{
			Field:   "password",
			Message: "incorrect password",
		}), nil
	}

	if err := sess.SetUserID(ctx, formatUserID(user.ID)); err != nil {
		return nil, errs.With("op", "login").Wrapf(err, "set session")
	}

	return common.OK(user), nil
}

// Logout destroys the server-side session. A store failure is logged and
// reported as false, never as an error.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) bool {
	if err := sess.Destroy(ctx); err != nil {
		s.logger.Error("destroy session", "err", err)
		return false
	}
	return true
}

// ForgotPassword always reports true so the caller cannot probe which emails
// have accounts. The reset token is only created when the email matches.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, errs.With("op", "forgotPassword").Wrapf(err, "find user")
	}
	if user == nil {
		return true, nil
	}

	if !s.limiter.Allow(email) {
		s.logger.Warn("reset mail rate limited", "email", email)
		return true, nil
	}

	token := uuid.NewString()
	if err := s.tokens.Set(ctx, token, formatUserID(user.ID), ResetTokenTTL); err != nil {
		return false, errs.With("op", "forgotPassword").Wrapf(err, "store token")
	}

	link := fmt.Sprintf("%s/change-password/%s", s.frontendURL, token)
	body := fmt.Sprintf(`<a href="%s">reset password</a>`, link)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		return false, errs.With("op", "forgotPassword").Wrapf(err, "send mail")
	}

	return true, nil
}

// ChangePassword consumes a reset token exactly once and logs the caller in
// with the new credential.
func (s *AuthService) ChangePassword(ctx context.Context, sess *session.Session, token, newPassword string) (*common.UserResult, error) {
	if len(newPassword) <= 2 {
		return common.Fail(common.FieldError{
			Field:   "newPassword",
			Message: "length must be greater than 2",
		}), nil
	}

	userID, err := s.tokens.Get(ctx, token)
	if errors.Is(err, kv.ErrNotFound) {
		return common.Fail(common.FieldError{
			Field:   "token",
			Message: "token expired",
		}), nil
	}
	if err != nil {
		return nil, errs.With("op", "changePassword").Wrapf(err, "read token")
	}

	id, err := parseUserID(userID)
	if err != nil {
		return nil, errs.With("op", "changePassword").Wrapf(err, "parse user id")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, errs.With("op", "changePassword").Wrapf(err, "find user")
	}
	if user == nil {
		return common.Fail(common.FieldError{
			Field:   "token",
			Message: "user no longer exists",
		}), nil
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, errs.With("op", "changePassword").Wrapf(err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, errs.With("op", "changePassword").Wrapf(err, "update password")
	}
	user.SetPassword(hash)

	// Single use: the consumed token must become indistinguishable from an
	// unknown one.
	if err := s.tokens.Delete(ctx, token); err != nil {
		return nil, errs.With("op", "changePassword").Wrapf(err, "delete token")
	}

	if err := sess.SetUserID(ctx, formatUserID(user.ID)); err != nil {
		return nil, errs.With("op", "changePassword").Wrapf(err, "set session")
	}

	s.publish(ctx, events.SubjectUserPasswordChanged, user)
	return common.OK(user), nil
}

// Me resolves the session to its user. An anonymous session and a session
// pointing at a deleted user both yield (nil, nil).
func (s *AuthService) Me(ctx context.Context, sess *session.Session) (*entities.User, error) {
	userID, err := sess.UserID(ctx)
	if err != nil {
		return nil, errs.With("op", "me").Wrapf(err, "read session")
	}
	if userID == "" {
		return nil, nil
	}

	id, err := parseUserID(userID)
	if err != nil {
		return nil, errs.With("op", "me").Wrapf(err, "parse user id")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, errs.With("op", "me").Wrapf(err, "find user")
	}
	return user, nil
}

func (s *AuthService) lookup(ctx context.Context, usernameOrEmail string) (*entities.User, error) {
	if strings.Contains(usernameOrEmail, "@") {
		return s.users.FindByEmail(ctx, usernameOrEmail)
	}
	return s.users.FindByUsername(ctx, usernameOrEmail)
}

func (s *AuthService) publish(ctx context.Context, subject string, user *entities.User) {
	event := events.UserEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Error("publish event", "subject", subject, "err", err)
	}
}

func formatUserID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseUserID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
