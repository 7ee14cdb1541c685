// Package app provides application services that implement operation handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/dispatch"
	"github.com/artpar/schemawire/domain/user"
	"github.com/artpar/schemawire/ports"
)

// UserService implements the user account operations.
type UserService struct {
	store    ports.UserStore
	clock    ports.Clock
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewUserService creates a new user service.
func NewUserService(store ports.UserStore, clock ports.Clock, logger zerolog.Logger) *UserService {
	return &UserService{
		store:    store,
		clock:    clock,
		logger:   logger.With().Str("component", "users").Logger(),
		validate: newValidator(),
	}
}

// newValidator builds the semantic validator for request structs. Field
// names in its errors follow the json tags, matching the wire names the
// shape checks use.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank rejects strings that are empty after trimming, which
	// "required" alone does not.
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// RegisterHandlers binds the user operations onto d.
func (s *UserService) RegisterHandlers(d *dispatch.Dispatcher) error {
	if err := d.Handle(user.OpList, dispatch.Bind(s.List)); err != nil {
		return err
	}
	if err := d.Handle(user.OpGet, dispatch.Bind(s.Get)); err != nil {
		return err
	}
	return d.Handle(user.OpCreate, dispatch.Bind(s.Create))
}

// List returns users ordered by ID.
func (s *UserService) List(ctx context.Context, p user.ListUsersParams) ([]user.User, error) {
	if p.Limit < 0 {
		return nil, apierr.Validation("invalid_limit", "limit must not be negative", "")
	}
	if p.Offset < 0 {
		return nil, apierr.Validation("invalid_offset", "offset must not be negative", "")
	}
	users, err := s.store.List(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []user.User{}
	}
	return users, nil
}

// Get fetches a single user by ID.
func (s *UserService) Get(ctx context.Context, req user.GetUserRequest) (user.User, error) {
	u, err := s.store.Get(ctx, req.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return user.User{}, apierr.NotFound("user_not_found", fmt.Sprintf("no user with id %d", req.ID))
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// Create validates the request, applies defaults, and stores a new account.
func (s *UserService) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	req.Username = user.NormalizeUsername(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return user.User{}, semanticError(err)
	}

	roles := user.DedupeRoles(req.Roles)
	if len(roles) == 0 {
		roles = user.DefaultRoles()
	}
	for _, r := range roles {
		if !r.IsValid() {
			return user.User{}, apierr.Validation("invalid_role", fmt.Sprintf("unknown role %q", r), "")
		}
	}

	u := user.User{
		Username:  req.Username,
		Email:     req.Email,
		CreatedAt: s.clock.Now().UTC(),
		Roles:     roles,
		Status:    user.StatusInvited,
		Active:    true,
		Preferences: &user.Preferences{
			Theme:    user.ThemeSystem,
			Timezone: req.Timezone,
		},
	}

	created, err := s.store.Create(ctx, u)
	if errors.Is(err, ports.ErrDuplicate) {
		return user.User{}, apierr.Conflict("user_exists", fmt.Sprintf("username %q is already taken", req.Username))
	}
	if err != nil {
		return user.User{}, err
	}

	s.logger.Info().Uint64("id", created.ID).Str("username", created.Username).Msg("user created")
	return created, nil
}

// semanticError maps validator failures onto stable error codes keyed by the
// first failing field; the detail carries every failure.
func semanticError(err error) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) || len(valErrs) == 0 {
		return apierr.Internal(err)
	}

	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		messages = append(messages, ve.Field()+": "+reasonFor(ve))
	}
	detail := strings.Join(messages, "; ")

	first := valErrs[0]
	code := "invalid_" + first.Field()
	return apierr.Validation(code, first.Field()+" "+reasonFor(first), detail)
}

// reasonFor converts a validator failure to a human-readable message.
func reasonFor(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required", "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "timezone":
		return "must be a valid IANA timezone name"
	default:
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
