package user

import (
	"reflect"
	"testing"

	"github.com/artpar/schemawire/core/apierr"
	"github.com/artpar/schemawire/core/registry"
)

func registered(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := apierr.RegisterSchema(reg); err != nil {
		t.Fatal(err)
	}
	if err := RegisterSchema(reg); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestRegisterSchemaDeclaresEverything(t *testing.T) {
	reg := registered(t)

	for _, name := range []string{
		TypeRole, TypeAccountStatus, TypeTheme, TypePreferences,
		TypeUser, TypeCreateUserRequest, TypeGetUserRequest, TypeListUsersParams,
	} {
		if _, ok := reg.Type(name); !ok {
			t.Errorf("type %q not registered", name)
		}
	}
	for _, name := range []string{OpList, OpGet, OpCreate} {
		if _, err := reg.Resolve(name); err != nil {
			t.Errorf("operation %q: %v", name, err)
		}
	}
}

func TestEnumVariantsMatchModelConstants(t *testing.T) {
	reg := registered(t)

	tests := []struct {
		typeName string
		want     []string
	}{
		{TypeRole, []string{"admin", "editor", "viewer"}},
		{TypeAccountStatus, []string{"active", "invited", "suspended"}},
		{TypeTheme, []string{"light", "dark", "system"}},
	}
	for _, tt := range tests {
		typ, ok := reg.Type(tt.typeName)
		if !ok {
			t.Fatalf("type %q missing", tt.typeName)
		}
		if !reflect.DeepEqual(typ.Variants, tt.want) {
			t.Errorf("%s variants = %v, want %v", tt.typeName, typ.Variants, tt.want)
		}
	}
}

func TestCreateOperationShape(t *testing.T) {
	reg := registered(t)

	op, err := reg.Resolve(OpCreate)
	if err != nil {
		t.Fatal(err)
	}
	if op.SuccessStatus() != 201 {
		t.Errorf("create status = %d, want 201", op.SuccessStatus())
	}
	if op.Route != "/users" || op.Methods[0] != "POST" {
		t.Errorf("create bound to %s %s", op.Methods, op.Route)
	}
	if op.Input.Name != TypeCreateUserRequest {
		t.Errorf("create input = %q", op.Input.Name)
	}
	if op.Errors == nil || op.Errors.Name != apierr.TypeName {
		t.Errorf("create errors = %v", op.Errors)
	}
}

func TestRegisterSchemaRejectsSecondCall(t *testing.T) {
	reg := registered(t)
	if err := RegisterSchema(reg); err == nil {
		t.Fatal("second registration should report a duplicate")
	}
}
