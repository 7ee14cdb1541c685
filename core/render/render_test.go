package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/schema"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	types := []struct {
		name string
		typ  *schema.Type
	}{
		{"Role", schema.Enum("Admin", "Editor", "Viewer")},
		{"ApiError", schema.Record(
			schema.F("code", schema.String()),
			schema.F("message", schema.String()),
			schema.Opt("detail", schema.String()),
		)},
		{"User", schema.Record(
			schema.F("id", schema.Uint()),
			schema.F("username", schema.String()),
			schema.F("created_at", schema.Timestamp()),
			schema.F("roles", schema.List(schema.Ref("Role"))),
			schema.Opt("nickname", schema.String()),
		)},
	}
	for _, tt := range types {
		if err := reg.RegisterType(tt.name, tt.typ); err != nil {
			t.Fatal(err)
		}
	}
	ops := []schema.Operation{
		{
			Name:    "users.get",
			Route:   "/users/{id}",
			Methods: []string{"GET"},
			Input:   schema.Record(schema.F("id", schema.Uint())),
			Output:  schema.Ref("User"),
			Errors:  schema.Ref("ApiError"),
		},
		{
			Name:    "users.create",
			Route:   "/users",
			Methods: []string{"POST"},
			Input:   schema.Ref("User"),
			Output:  schema.Ref("User"),
			Errors:  schema.Ref("ApiError"),
			Status:  201,
		},
	}
	for _, op := range ops {
		if err := reg.Register(op); err != nil {
			t.Fatal(err)
		}
	}
	reg.Freeze()
	return reg
}

func TestRenderDeterministic(t *testing.T) {
	reg := testRegistry(t)
	info := Info{Name: "demo", Version: "1.0.0"}

	first, err := Render(reg, info)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Render(reg, info)
	if err != nil {
		t.Fatal(err)
	}
	a, err := Encode(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two renders of the same registry differ")
	}
	if !bytes.HasSuffix(a, []byte("\n")) {
		t.Error("encoded document should end with a newline")
	}
}

func TestRenderEnumVariants(t *testing.T) {
	reg := testRegistry(t)
	doc, err := Render(reg, Info{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	var role *NamedType
	for i := range doc.Types {
		if doc.Types[i].Name == "Role" {
			role = &doc.Types[i]
		}
	}
	if role == nil {
		t.Fatal("Role type not rendered")
	}
	want := []string{"admin", "editor", "viewer"}
	if len(role.Variants) != len(want) {
		t.Fatalf("variants = %v, want %v", role.Variants, want)
	}
	for i, v := range want {
		if role.Variants[i] != v {
			t.Errorf("variant[%d] = %q, want %q (lowercase, declaration order)", i, role.Variants[i], v)
		}
	}
}

func TestRenderFieldOrderPreserved(t *testing.T) {
	reg := testRegistry(t)
	doc, err := Render(reg, Info{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	for _, nt := range doc.Types {
		if nt.Name != "User" {
			continue
		}
		want := []string{"id", "username", "created_at", "roles", "nickname"}
		if len(nt.Fields) != len(want) {
			t.Fatalf("User has %d fields, want %d", len(nt.Fields), len(want))
		}
		for i, name := range want {
			if nt.Fields[i].Name != name {
				t.Errorf("User field[%d] = %q, want %q (declaration order)", i, nt.Fields[i].Name, name)
			}
		}
		return
	}
	t.Fatal("User type not rendered")
}

func TestRenderOptionalIsNullable(t *testing.T) {
	reg := testRegistry(t)
	doc, err := Render(reg, Info{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "oneOf") || strings.Contains(string(data), "anyOf") {
		t.Error("optional must render as nullable, not a union")
	}
	for _, nt := range doc.Types {
		if nt.Name != "User" {
			continue
		}
		last := nt.Fields[len(nt.Fields)-1]
		if last.Name != "nickname" {
			t.Fatalf("unexpected last field %q", last.Name)
		}
		if !last.Type.Nullable {
			t.Error("optional field should render nullable")
		}
		if last.Type.Kind != "string" {
			t.Errorf("optional string renders kind %q, want string", last.Type.Kind)
		}
		if last.Required {
			t.Error("optional field should not be required")
		}
	}
}

func TestRenderTimestampFormat(t *testing.T) {
	reg := testRegistry(t)
	doc, err := Render(reg, Info{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	for _, nt := range doc.Types {
		if nt.Name != "User" {
			continue
		}
		for _, f := range nt.Fields {
			if f.Name != "created_at" {
				continue
			}
			if f.Type.Kind != "string" || f.Type.Format != "date-time" {
				t.Errorf("timestamp rendered as %s/%s, want string/date-time", f.Type.Kind, f.Type.Format)
			}
			return
		}
	}
	t.Fatal("created_at not rendered")
}

func TestRenderOperationStatus(t *testing.T) {
	reg := testRegistry(t)
	doc, err := Render(reg, Info{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]Operation{}
	for _, op := range doc.Operations {
		byName[op.Name] = op
	}
	if byName["users.get"].Status != 200 {
		t.Errorf("users.get status = %d, want 200", byName["users.get"].Status)
	}
	if byName["users.create"].Status != 201 {
		t.Errorf("users.create status = %d, want 201", byName["users.create"].Status)
	}
}

func TestRenderUnresolvedReference(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterType("Broken", schema.Record(schema.F("x", schema.Ref("Ghost")))); err != nil {
		t.Fatal(err)
	}
	reg.Freeze()
	_, err := Render(reg, Info{Name: "demo"})
	var unresolved *UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedReferenceError, got %v", err)
	}
	if unresolved.Name != "Ghost" {
		t.Errorf("error names %q, want Ghost", unresolved.Name)
	}
}

func TestEncodeStableUnderReDecode(t *testing.T) {
	reg := testRegistry(t)
	doc, err := Render(reg, Info{Name: "demo", Version: "1.0.0"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	var rt Document
	if err := json.Unmarshal(data, &rt); err != nil {
		t.Fatalf("document does not decode back: %v", err)
	}
	if rt.Schema != FormatID {
		t.Errorf("schema id = %q, want %q", rt.Schema, FormatID)
	}
}

func TestServiceCachesAndTags(t *testing.T) {
	calls := 0
	svc := NewService(func() ([]byte, error) {
		calls++
		return []byte(`{"ok":true}`), nil
	})
	a, etagA, err := svc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	b, etagB, err := svc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("build ran %d times, want 1", calls)
	}
	if !bytes.Equal(a, b) || etagA != etagB {
		t.Error("cached bytes or etag differ between calls")
	}
	if !strings.HasPrefix(etagA, `"`) || !strings.HasSuffix(etagA, `"`) {
		t.Errorf("etag %q is not quoted", etagA)
	}
}

func TestServicePropagatesBuildError(t *testing.T) {
	svc := NewService(func() ([]byte, error) {
		return nil, fmt.Errorf("boom")
	})
	if _, _, err := svc.Bytes(); err == nil {
		t.Fatal("expected build error")
	}
}
