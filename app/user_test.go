package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/schemawire/adapters/clock"
	"github.com/artpar/schemawire/adapters/memory"
	"github.com/artpar/schemawire/app"
	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/domain/user"
	"github.com/artpar/schemawire/ports"
)

var testTime = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newUserService(t *testing.T) (*app.UserService, *memory.UserStore, *clock.Fake) {
	t.Helper()
	store := memory.NewUserStore()
	clk := clock.NewFake(testTime)
	svc := app.NewUserService(store, clk, zerolog.Nop())
	return svc, store, clk
}

// failingUserStore returns a fixed error from every method.
type failingUserStore struct {
	err error
}

func (f *failingUserStore) Create(ctx context.Context, u user.User) (user.User, error) {
	return user.User{}, f.err
}

func (f *failingUserStore) Get(ctx context.Context, id uint64) (user.User, error) {
	return user.User{}, f.err
}

func (f *failingUserStore) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	return nil, f.err
}

func (f *failingUserStore) Count(ctx context.Context) (int, error) {
	return 0, f.err
}

var _ ports.UserStore = (*failingUserStore)(nil)

func TestUserService_Create_AppliesDefaults(t *testing.T) {
	svc, _, _ := newUserService(t)

	created, err := svc.Create(context.Background(), user.CreateUserRequest{
		Username: "gopher",
		Email:    "gopher@example.com",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if created.ID != 1 {
		t.Errorf("ID = %d, want 1", created.ID)
	}
	if len(created.Roles) != 1 || created.Roles[0] != user.RoleViewer {
		t.Errorf("Roles = %v, want [viewer]", created.Roles)
	}
	if created.Status != user.StatusInvited {
		t.Errorf("Status = %s, want invited", created.Status)
	}
	if !created.Active {
		t.Error("Active = false, want true")
	}
	if created.Preferences == nil {
		t.Fatal("Preferences = nil, want defaults")
	}
	if created.Preferences.Theme != user.ThemeSystem {
		t.Errorf("Theme = %s, want system", created.Preferences.Theme)
	}
	if !created.CreatedAt.Equal(testTime) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, testTime)
	}
}

func TestUserService_Create_TrimsUsernameKeepsCase(t *testing.T) {
	svc, _, _ := newUserService(t)

	created, err := svc.Create(context.Background(), user.CreateUserRequest{
		Username: "  GoPher  ",
		Email:    "gopher@example.com",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.Username != "GoPher" {
		t.Errorf("Username = %q, want trimmed %q", created.Username, "GoPher")
	}
}

func TestUserService_Create_DedupesRoles(t *testing.T) {
	svc, _, _ := newUserService(t)

	created, err := svc.Create(context.Background(), user.CreateUserRequest{
		Username: "gopher",
		Email:    "gopher@example.com",
		Roles:    []user.Role{user.RoleAdmin, user.RoleViewer, user.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	want := []user.Role{user.RoleAdmin, user.RoleViewer}
	if len(created.Roles) != len(want) {
		t.Fatalf("Roles = %v, want %v", created.Roles, want)
	}
	for i := range want {
		if created.Roles[i] != want[i] {
			t.Errorf("Roles[%d] = %s, want %s", i, created.Roles[i], want[i])
		}
	}
}

func TestUserService_Create_SemanticValidation(t *testing.T) {
	tests := []struct {
		name       string
		req        user.CreateUserRequest
		wantCode   string
		wantDetail string
	}{
		{
			name:     "missing username",
			req:      user.CreateUserRequest{Email: "x@example.com"},
			wantCode: "invalid_username",
		},
		{
			name:     "whitespace username",
			req:      user.CreateUserRequest{Username: "   ", Email: "x@example.com"},
			wantCode: "invalid_username",
		},
		{
			name:     "missing email",
			req:      user.CreateUserRequest{Username: "gopher"},
			wantCode: "invalid_email",
		},
		{
			name:     "malformed email",
			req:      user.CreateUserRequest{Username: "gopher", Email: "not-an-email"},
			wantCode: "invalid_email",
		},
		{
			name:     "unknown timezone",
			req:      user.CreateUserRequest{Username: "gopher", Email: "x@example.com", Timezone: "Mars/Olympus"},
			wantCode: "invalid_timezone",
		},
		{
			name:       "multiple failures report first field",
			req:        user.CreateUserRequest{Email: "nope"},
			wantCode:   "invalid_username",
			wantDetail: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newUserService(t)

			_, err := svc.Create(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Create succeeded, want validation error")
			}

			var apiErr *apierr.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *apierr.Error", err)
			}
			if apiErr.Kind != apierr.KindValidation {
				t.Errorf("Kind = %s, want validation", apiErr.Kind)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", apiErr.Code, tt.wantCode)
			}
			if tt.wantDetail != "" && !strings.Contains(apiErr.Detail, tt.wantDetail) {
				t.Errorf("Detail = %q, want mention of %q", apiErr.Detail, tt.wantDetail)
			}
		})
	}
}

func TestUserService_Create_RejectsUnknownRole(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Create(context.Background(), user.CreateUserRequest{
		Username: "gopher",
		Email:    "gopher@example.com",
		Roles:    []user.Role{"owner"},
	})
	if err == nil {
		t.Fatal("Create succeeded, want invalid_role error")
	}

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *apierr.Error", err)
	}
	if apiErr.Code != "invalid_role" {
		t.Errorf("Code = %s, want invalid_role", apiErr.Code)
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, user.CreateUserRequest{Username: "gopher", Email: "a@example.com"}); err != nil {
		t.Fatalf("first Create error: %v", err)
	}

	_, err := svc.Create(ctx, user.CreateUserRequest{Username: "GOPHER", Email: "b@example.com"})
	if err == nil {
		t.Fatal("second Create succeeded, want conflict")
	}

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *apierr.Error", err)
	}
	if apiErr.Kind != apierr.KindConflict {
		t.Errorf("Kind = %s, want conflict", apiErr.Kind)
	}
	if apiErr.Code != "user_exists" {
		t.Errorf("Code = %s, want user_exists", apiErr.Code)
	}
}

func TestUserService_Create_StoreFailurePassesThrough(t *testing.T) {
	storeErr := errors.New("disk full")
	svc := app.NewUserService(&failingUserStore{err: storeErr}, clock.NewFake(testTime), zerolog.Nop())

	_, err := svc.Create(context.Background(), user.CreateUserRequest{
		Username: "gopher",
		Email:    "gopher@example.com",
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("error = %v, want %v", err, storeErr)
	}

	// Infrastructure failures stay untyped here; the dispatcher turns them
	// into a generic internal envelope.
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		t.Errorf("store failure surfaced as %s, want plain error", apiErr.Code)
	}
}

func TestUserService_Get(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateUserRequest{Username: "gopher", Email: "g@example.com"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := svc.Get(ctx, user.GetUserRequest{ID: created.ID})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Username != "gopher" {
		t.Errorf("Username = %s, want gopher", got.Username)
	}
}

func TestUserService_Get_NotFound(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Get(context.Background(), user.GetUserRequest{ID: 42})
	if err == nil {
		t.Fatal("Get succeeded, want not found")
	}

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *apierr.Error", err)
	}
	if apiErr.Kind != apierr.KindNotFound {
		t.Errorf("Kind = %s, want not_found", apiErr.Kind)
	}
	if apiErr.Code != "user_not_found" {
		t.Errorf("Code = %s, want user_not_found", apiErr.Code)
	}
}

func TestUserService_List(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	for _, name := range []string{"ann", "bob", "cid"} {
		if _, err := svc.Create(ctx, user.CreateUserRequest{Username: name, Email: name + "@example.com"}); err != nil {
			t.Fatalf("Create %s error: %v", name, err)
		}
	}

	users, err := svc.List(ctx, user.ListUsersParams{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].Username != "bob" || users[1].Username != "cid" {
		t.Errorf("page = [%s %s], want [bob cid]", users[0].Username, users[1].Username)
	}
}

func TestUserService_List_EmptyStoreReturnsEmptySlice(t *testing.T) {
	svc, _, _ := newUserService(t)

	users, err := svc.List(context.Background(), user.ListUsersParams{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if users == nil {
		t.Fatal("List returned nil, want empty slice")
	}
	if len(users) != 0 {
		t.Errorf("len(users) = %d, want 0", len(users))
	}
}

func TestUserService_List_RejectsNegativeParams(t *testing.T) {
	tests := []struct {
		name     string
		params   user.ListUsersParams
		wantCode string
	}{
		{"negative limit", user.ListUsersParams{Limit: -1}, "invalid_limit"},
		{"negative offset", user.ListUsersParams{Offset: -5}, "invalid_offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newUserService(t)

			_, err := svc.List(context.Background(), tt.params)
			if err == nil {
				t.Fatal("List succeeded, want validation error")
			}

			var apiErr *apierr.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *apierr.Error", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", apiErr.Code, tt.wantCode)
			}
		})
	}
}
