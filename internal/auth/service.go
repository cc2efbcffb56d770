package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/bank-customer-api/internal/models"
	"github.com/hongminglow/bank-customer-api/internal/storage"
)

// Login outcomes reported to the Observer.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeLocked             = "locked"
	OutcomeError              = "error"
)

const maxAdminFieldLength = 100

// Observer receives auth events, typically to feed metrics.
type Observer interface {
	LoginAttempt(outcome string)
	Lockout()
	Registered(kind models.UserKind)
}

type nopObserver struct{}

func (nopObserver) LoginAttempt(string) {}
func (nopObserver) Lockout() {}
func (nopObserver) Registered(models.UserKind) {}

// Options tweaks Service behaviour. Zero values select defaults.
type Options struct {
	Lockout  LockoutPolicy
	Logger   logrus.FieldLogger
	Observer Observer
	Now      func() time.Time
}

// Service orchestrates login and registration.
type Service struct {
	store    storage.Store
	hasher   PasswordHasher
	tokens   *TokenManager
	lockout  LockoutPolicy
	log      logrus.FieldLogger
	observer Observer
	now      func() time.Time
}

// NewService wires the service dependencies.
func NewService(store storage.Store, hasher PasswordHasher, tokens *TokenManager, opts Options) *Service {
	s := &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		lockout:  NewLockoutPolicy(opts.Lockout.MaxFailures, opts.Lockout.LockDuration),
		log:      opts.Logger,
		observer: opts.Observer,
		now:      opts.Now,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Message     string
	Token       string
	TokenExpiry time.Time
	User        models.UserSummary
	Roles       []models.ResolvedRole
}

// RegisterResult is returned on successful registration.
type RegisterResult struct {
	Message string
	User    models.UserSummary
}

// RegisterInput carries the registration fields. Admin fields are used only
// for the Admin and SYSAdmin kinds.
type RegisterInput struct {
	FirstName            string
	LastName             string
	Email                string
	PhoneNumber          string
	DateOfBirth          time.Time
	Address              string
	IdentificationNumber string
	Password             string
	UserKind             string
	Department           string
	Position             string
	YearsOfExperience    *int
	AdminLevel           string
}

// Login authenticates email/password. Unknown users, missing credentials and
// wrong passwords all fail with the same message. A locked credential is
// rejected without checking the password.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	log := s.log.WithField("op", "login")

	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.observer.LoginAttempt(OutcomeInvalidCredentials)
			log.Info("login rejected: unknown email")
			return LoginResult{}, authenticationFailure()
		}
		s.observer.LoginAttempt(OutcomeError)
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	log = log.WithField("user_id", user.ID)

	now := s.now()
	var verified, lockedNow bool
	_, err = s.store.UpdateCredential(ctx, user.ID, func(cred *models.Credential) error {
		if until, locked := s.lockout.Locked(*cred, now); locked {
			return accountLocked(until)
		}
		if !s.hasher.Verify(password, cred.PasswordHash, cred.PasswordKey) {
			lockedNow = s.lockout.RecordFailure(cred, now)
			return nil
		}
		verified = true
		s.lockout.RecordSuccess(cred)
		return nil
	})
	if err != nil {
		if authErr, ok := AsError(err); ok {
			s.observer.LoginAttempt(OutcomeLocked)
			log.WithField("locked_until", authErr.LockedUntil).Info("login rejected: account locked")
			return LoginResult{}, authErr
		}
		if errors.Is(err, storage.ErrNotFound) {
			s.observer.LoginAttempt(OutcomeInvalidCredentials)
			log.Warn("login rejected: user has no credential")
			return LoginResult{}, authenticationFailure()
		}
		s.observer.LoginAttempt(OutcomeError)
		return LoginResult{}, fmt.Errorf("update credential: %w", err)
	}

	if !verified {
		s.observer.LoginAttempt(OutcomeInvalidCredentials)
		if lockedNow {
			s.observer.Lockout()
			log.Warn("credential locked after repeated failures")
		} else {
			log.Info("login rejected: wrong password")
		}
		return LoginResult{}, authenticationFailure()
	}

	graph, err := s.store.LoadGrantGraph(ctx, user.ID)
	if err != nil {
		s.observer.LoginAttempt(OutcomeError)
		return LoginResult{}, fmt.Errorf("load grants: %w", err)
	}
	roles := ResolveRoles(graph, now)

	token, expiresAt, err := s.tokens.Issue(user, roles, now)
	if err != nil {
		s.observer.LoginAttempt(OutcomeError)
		return LoginResult{}, err
	}

	s.observer.LoginAttempt(OutcomeSuccess)
	log.WithField("roles", len(roles)).Info("login successful")
	return LoginResult{
		Message:     MsgLoginSuccessful,
		Token:       token,
		TokenExpiry: expiresAt,
		User:        user.Summary(now),
		Roles:       roles,
	}, nil
}

// Register creates a user of the requested kind with a fresh credential and
// the default ACCOUNT_HOLDER grant when that role exists. It issues no token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	log := s.log.WithField("op", "register")
	in.Email = strings.TrimSpace(in.Email)

	exists, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		log.Info("registration rejected: email exists")
		return RegisterResult{}, validationFailure(MsgEmailExists)
	}

	now := s.now()
	user, err := buildUser(in, now)
	if err != nil {
		return RegisterResult{}, err
	}

	digest, key, err := s.hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}
	cred := models.Credential{
		PasswordHash:       digest,
		PasswordKey:        key,
		CreatedAt:          now,
		LastPasswordChange: &now,
	}

	created, err := s.store.CreateUser(ctx, user, cred, models.RoleAccountHolder)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return RegisterResult{}, validationFailure(MsgEmailExists)
		}
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	s.observer.Registered(created.Kind)
	log.WithFields(logrus.Fields{"user_id": created.ID, "kind": created.Kind.String()}).Info("user registered")
	return RegisterResult{Message: MsgRegistered, User: created.Summary(now)}, nil
}

func buildUser(in RegisterInput, now time.Time) (models.User, error) {
	user := models.User{
		Kind:                 models.ParseUserKind(in.UserKind),
		FirstName:            strings.TrimSpace(in.FirstName),
		LastName:             strings.TrimSpace(in.LastName),
		Email:                in.Email,
		PhoneNumber:          strings.TrimSpace(in.PhoneNumber),
		DateOfBirth:          in.DateOfBirth,
		Address:              strings.TrimSpace(in.Address),
		IdentificationNumber: strings.TrimSpace(in.IdentificationNumber),
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	switch user.Kind {
	case models.KindAdmin, models.KindSysAdmin:
		department := strings.TrimSpace(in.Department)
		position := strings.TrimSpace(in.Position)
		if utf8.RuneCountInString(department) > maxAdminFieldLength {
			return models.User{}, validationFailure(MsgDepartmentTooLong)
		}
		if utf8.RuneCountInString(position) > maxAdminFieldLength {
			return models.User{}, validationFailure("Position cannot exceed 100 characters.")
		}
		if y := in.YearsOfExperience; y != nil && (*y < 1 || *y > 50) {
			return models.User{}, validationFailure("Years of experience must be between 1 and 50.")
		}
		profile := &models.AdminProfile{
			Department:        department,
			Position:          position,
			YearsOfExperience: in.YearsOfExperience,
			LastActionAt:      &now,
		}
		if user.Kind == models.KindSysAdmin {
			level, ok := models.ParseAdminLevel(in.AdminLevel)
			if !ok {
				return models.User{}, validationFailure("Admin level must be one of Super, Senior, Junior.")
			}
			profile.Level = level
		}
		user.Admin = profile
	}
	return user, nil
}
