// Package auth keeps the customer accounts and the single signed-in user.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Skotchmaster/localshop/internal/domain"
	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/storage"
	pkg_hash "github.com/Skotchmaster/localshop/pkg/hash"
	"github.com/Skotchmaster/localshop/pkg/logging"
	"github.com/Skotchmaster/localshop/pkg/tokens"
)

var (
	ErrValidation         = domain.ErrValidation
	ErrConflict           = domain.ErrConflict
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrUnauthorized       = domain.ErrUnauthorized
)

const DefaultTTL = 24 * time.Hour

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

// Session is what a successful register or login hands back: the public
// user and the access token bound to it.
type Session struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	State  *state.State
	Events events.Publisher
	Secret []byte
	TTL    time.Duration

	validate *validator.Validate
}

func NewService(st *state.State, pub events.Publisher, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{State: st, Events: pub, Secret: secret, TTL: ttl, validate: validator.New()}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	if s.validate == nil {
		s.validate = validator.New()
	}
	if err := s.validate.Struct(in); err != nil {
		l.Warn("register_error", "status", 400, "reason", "missing fields")
		return Session{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return Session{}, err
	}

	var created models.User
	err = s.State.Mutate(ctx, func(d *state.Data) error {
		if findByEmail(d, in.Email) != nil {
			return fmt.Errorf("email %s already registered: %w", in.Email, ErrConflict)
		}
		now := s.State.Now()
		u := models.User{
			ID:             nextUserID(d, now),
			Name:           in.Name,
			Email:          in.Email,
			Password:       pwHash,
			Address:        in.Address,
			RegisteredDate: models.FormatDate(now),
		}
		d.Users = append(d.Users, u)
		pub := u.Public()
		d.CurrentUser = &pub
		created = pub
		return nil
	}, storage.Users, storage.CurrentUser)
	if err != nil {
		l.Warn("register_error", "error", err)
		return Session{}, err
	}

	sess, err := s.issue(created)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot sign token", "error", err)
		return Session{}, err
	}

	l.Info("user_registered", "user_id", created.ID)
	events.Emit(ctx, s.Events, events.Event{Type: events.UserRegistered, UserID: created.ID, At: s.State.Now()})
	return sess, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "missing fields")
		return Session{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	var user models.User
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		u := findByEmail(d, email)
		if u == nil || !pkg_hash.CheckPassword(u.Password, password) {
			return ErrInvalidCredentials
		}
		pub := u.Public()
		d.CurrentUser = &pub
		user = pub
		return nil
	}, storage.CurrentUser)
	if err != nil {
		l.Warn("login_failed", "status", 401, "error", err)
		return Session{}, err
	}

	sess, err := s.issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return Session{}, err
	}

	l.Info("login_successful", "user_id", user.ID)
	events.Emit(ctx, s.Events, events.Event{Type: events.UserLoggedIn, UserID: user.ID, At: s.State.Now()})
	return sess, nil
}

// Logout forgets the signed-in user. Logging out twice is harmless.
func (s *Service) Logout(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	var prev *models.User
	err := s.State.Mutate(ctx, func(d *state.Data) error {
		prev = d.CurrentUser
		d.CurrentUser = nil
		return nil
	}, storage.CurrentUser)
	if err != nil {
		l.Error("logout_failed", "error", err)
		return err
	}
	if prev == nil {
		return nil
	}

	l.Info("successful_logout", "user_id", prev.ID)
	events.Emit(ctx, s.Events, events.Event{Type: events.UserLoggedOut, UserID: prev.ID, At: s.State.Now()})
	return nil
}

func (s *Service) Current() *models.User {
	return s.State.CurrentUser()
}

// Authenticate accepts a token only while its subject is the signed-in user.
func (s *Service) Authenticate(token string) (models.User, error) {
	if token == "" {
		return models.User{}, fmt.Errorf("%w: missing access token", ErrUnauthorized)
	}
	claims, err := tokens.AccessClaimsFromToken(token, s.Secret)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrUnauthorized, err.Error())
	}
	cur := s.State.CurrentUser()
	if cur == nil || strconv.FormatInt(cur.ID, 10) != claims.Subject {
		return models.User{}, fmt.Errorf("%w: session ended", ErrUnauthorized)
	}
	return *cur, nil
}

// issue signs against the wall clock; the state clock only dates records.
func (s *Service) issue(u models.User) (Session, error) {
	exp := time.Now().Add(s.TTL)
	tok, err := tokens.CreateAccessToken(strconv.FormatInt(u.ID, 10), u.Email, exp, s.Secret)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok, ExpiresAt: exp}, nil
}

func findByEmail(d *state.Data, email string) *models.User {
	for i := range d.Users {
		if strings.EqualFold(d.Users[i].Email, email) {
			return &d.Users[i]
		}
	}
	return nil
}

func nextUserID(d *state.Data, now time.Time) int64 {
	id := now.UnixMilli()
	for d.FindUser(id) != nil {
		id++
	}
	return id
}
