package user

import (
	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/schema"
)

// Registered type names. Operations and other packages reference user
// records through these rather than repeating string literals.
const (
	TypeRole              = "Role"
	TypeAccountStatus     = "AccountStatus"
	TypeTheme             = "Theme"
	TypePreferences       = "Preferences"
	TypeUser              = "User"
	TypeCreateUserRequest = "CreateUserRequest"
	TypeGetUserRequest    = "GetUserRequest"
	TypeListUsersParams   = "ListUsersParams"
)

// Operation names on the user surface.
const (
	OpList   = "users.list"
	OpGet    = "users.get"
	OpCreate = "users.create"
)

// RegisterSchema declares every user record, enum, and operation into reg.
// Declaration order here is the order they appear in rendered documents.
func RegisterSchema(reg *registry.Registry) error {
	types := []struct {
		name string
		typ  *schema.Type
	}{
		{TypeRole, schema.Enum(string(RoleAdmin), string(RoleEditor), string(RoleViewer))},
		{TypeAccountStatus, schema.Enum(string(StatusActive), string(StatusInvited), string(StatusSuspended))},
		{TypeTheme, schema.Enum(string(ThemeLight), string(ThemeDark), string(ThemeSystem))},
		{TypePreferences, schema.Record(
			schema.F("theme", schema.Ref(TypeTheme)),
			schema.Opt("timezone", schema.String()),
			schema.Opt("last_login_at", schema.Timestamp()),
		)},
		{TypeUser, schema.Record(
			schema.F("id", schema.Uint()),
			schema.F("username", schema.String()),
			schema.F("email", schema.String()),
			schema.F("created_at", schema.Timestamp()),
			schema.F("roles", schema.List(schema.Ref(TypeRole))),
			schema.F("status", schema.Ref(TypeAccountStatus)),
			schema.F("active", schema.Bool()),
			schema.Opt("preferences", schema.Ref(TypePreferences)),
		)},
		{TypeCreateUserRequest, schema.Record(
			schema.F("username", schema.String()),
			schema.F("email", schema.String()),
			schema.Opt("roles", schema.List(schema.Ref(TypeRole))),
			schema.Opt("timezone", schema.String()),
		)},
		{TypeGetUserRequest, schema.Record(
			schema.F("id", schema.Uint()),
		)},
		{TypeListUsersParams, schema.Record(
			schema.Opt("limit", schema.Int()),
			schema.Opt("offset", schema.Int()),
		)},
	}
	for _, t := range types {
		if err := reg.RegisterType(t.name, t.typ); err != nil {
			return err
		}
	}

	ops := []schema.Operation{
		{
			Name:        OpList,
			Description: "List user accounts ordered by ID.",
			Route:       "/users",
			Methods:     []string{"GET"},
			Input:       schema.Ref(TypeListUsersParams),
			Output:      schema.List(schema.Ref(TypeUser)),
			Errors:      schema.Ref(apierr.TypeName),
		},
		{
			Name:        OpGet,
			Description: "Fetch a single user account by ID.",
			Route:       "/users/{id}",
			Methods:     []string{"GET"},
			Input:       schema.Ref(TypeGetUserRequest),
			Output:      schema.Ref(TypeUser),
			Errors:      schema.Ref(apierr.TypeName),
		},
		{
			Name:        OpCreate,
			Description: "Create a user account.",
			Route:       "/users",
			Methods:     []string{"POST"},
			Status:      201,
			Input:       schema.Ref(TypeCreateUserRequest),
			Output:      schema.Ref(TypeUser),
			Errors:      schema.Ref(apierr.TypeName),
		},
	}
	for _, op := range ops {
		if err := reg.Register(op); err != nil {
			return err
		}
	}
	return nil
}
