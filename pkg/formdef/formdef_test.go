package formdef_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/validation"
)

func noopSubmit(context.Context, field.Snapshot) error { return nil }

func embedded(t *testing.T, id string) formdef.Definition {
	t.Helper()
	catalog, err := formdef.Embedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	def, ok := catalog.Get(id)
	if !ok {
		t.Fatalf("definition %q not found in %v", id, catalog.IDs())
	}
	return def
}

func TestEmbedded(t *testing.T) {
	catalog, err := formdef.Embedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if diff := cmp.Diff([]string{"login", "signup"}, catalog.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	for _, id := range catalog.IDs() {
		def, _ := catalog.Get(id)
		if err := def.Check(context.Background()); err != nil {
			t.Fatalf("embedded %s should pass Check: %v", id, err)
		}
	}

	signup, _ := catalog.Get("signup")
	if !signup.IsWizard() || len(signup.Steps) != 3 {
		t.Fatalf("expected 3-step signup wizard, got %+v", signup.Steps)
	}
	pw, ok := signup.Field("password")
	if !ok || !pw.Secret || pw.DisplayLabel() != "Password" {
		t.Fatalf("unexpected password field %+v", pw)
	}
	if signup.Source != "signup.yaml" {
		t.Fatalf("unexpected source %q", signup.Source)
	}
}

func TestSignupDefinition_MatchesRuleSet(t *testing.T) {
	validate, err := embedded(t, "signup").Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	rules := validation.Signup()

	snapshots := []field.Snapshot{
		{"email": "", "password": "", "passwordCheck": "", "nickName": "", "bio": "", "avatar": ""},
		{"email": "a@b.co", "password": "12345678", "passwordCheck": "12345678", "nickName": "umc", "bio": "", "avatar": ""},
		{"email": "a@b.company", "password": "1234567", "passwordCheck": "12345678", "nickName": "x", "bio": "", "avatar": ""},
		{"email": "a@b.co", "password": "12345678", "passwordCheck": "87654321", "nickName": "x", "bio": "", "avatar": ""},
		{"email": "a@b.co", "password": strings.Repeat("x", 21), "passwordCheck": strings.Repeat("x", 21), "nickName": "x", "bio": "", "avatar": ""},
		{"email": "a@b.co", "password": "12345678", "passwordCheck": "12345678", "nickName": " ", "bio": "", "avatar": ""},
		{"email": "a@b.co", "password": "12345678", "passwordCheck": "12345678", "nickName": "x", "bio": "", "avatar": "example.com/a.png"},
		{"email": "a@b.co", "password": "12345678", "passwordCheck": "12345678", "nickName": "x", "bio": "", "avatar": "http://example.com/a.png"},
	}
	for i, snap := range snapshots {
		if diff := cmp.Diff(rules(snap).Clone(), validate(snap).Clone()); diff != "" {
			t.Fatalf("snapshot %d mismatch (-rules +definition):\n%s", i, diff)
		}
	}
}

func TestBuild_Login(t *testing.T) {
	ctrl, wiz, err := embedded(t, "login").Build(noopSubmit)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if wiz != nil {
		t.Fatalf("login must not build a wizard")
	}
	if diff := cmp.Diff([]string{"email", "password"}, ctrl.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if ctrl.IsValid() {
		t.Fatalf("empty login must be invalid")
	}
	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.SetValue("password", "12345678")
	if !ctrl.IsValid() {
		t.Fatalf("expected valid login, errors %v", ctrl.Errors().Clone())
	}
}

func TestBuild_SignupSanitizesAndSteps(t *testing.T) {
	ctrl, wiz, err := embedded(t, "signup").Build(noopSubmit)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if wiz == nil || wiz.Len() != 3 {
		t.Fatalf("expected 3-step wizard")
	}
	if diff := cmp.Diff([]string{"email"}, wiz.Step().Fields); diff != "" {
		t.Fatalf("first step mismatch (-want +got):\n%s", diff)
	}

	_ = ctrl.SetValue("nickName", "  <b>umc</b> ")
	_ = ctrl.SetValue("bio", "hello <script>alert(1)</script>world")
	_ = ctrl.SetValue("avatar", "javascript:alert(1)")
	_ = ctrl.SetValue("password", "  <b>12345678</b>")

	values := ctrl.Values()
	want := map[string]string{
		"nickName": "umc",
		"bio":      "hello world",
		"avatar":   "javascript:alert(1)",
		"password": "  <b>12345678</b>",
	}
	got := map[string]string{}
	for name := range want {
		got[name] = values.String(name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitized values mismatch (-want +got):\n%s", diff)
	}

	if got := ctrl.Errors().Get("avatar"); got != validation.MsgInvalidURL {
		t.Fatalf("rejected avatar must be reported, got %q", got)
	}

	_ = ctrl.SetValue("avatar", "example.com/a.png")
	if got := ctrl.DisplayError("avatar"); got != validation.MsgInvalidURL {
		t.Fatalf("schemeless avatar must be reported, got %q", got)
	}

	_ = ctrl.SetValue("avatar", "https://example.com/me.png")
	if got := ctrl.Values().String("avatar"); got != "https://example.com/me.png" {
		t.Fatalf("http(s) avatar should be kept, got %q", got)
	}
	if got := ctrl.Errors().Get("avatar"); got != "" {
		t.Fatalf("valid avatar must clear the error, got %q", got)
	}
}

func TestParse_JSON(t *testing.T) {
	def, err := formdef.Parse([]byte(`{
		"id": " contact ",
		"fields": [{"name": "email", "initial": "me@example.com"}, {"name": "note", "sanitize": "TEXT"}],
		"rules": "signin"
	}`), "contact.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.ID != "contact" || def.Rules != "signin" || def.Fields[1].Sanitize != formdef.SanitizeText {
		t.Fatalf("definition not normalised: %+v", def)
	}
	if diff := cmp.Diff([]string{"email", "note"}, def.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{name: "empty", data: "  ", want: "is empty"},
		{name: "invalid", data: "id: [", want: "invalid JSON or YAML"},
		{name: "no id", data: "fields:\n  - name: a\n", want: "defines no id"},
		{name: "no fields", data: "id: x\n", want: "declares no fields"},
		{name: "unnamed field", data: "id: x\nfields:\n  - label: A\n", want: "has no name"},
		{name: "duplicate field", data: "id: x\nfields:\n  - name: a\n  - name: a\n", want: "declares field \"a\" twice"},
		{name: "sanitizer", data: "id: x\nfields:\n  - name: a\n    sanitize: html\n", want: "unknown sanitizer"},
		{name: "refine kind", data: "id: x\nfields:\n  - name: a\nrefine:\n  - kind: differs\n", want: "unknown kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := formdef.Parse([]byte(tc.data), "x.yaml")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml":        {Data: []byte("id: a\nfields:\n  - name: x\n")},
		"nested/b.json": {Data: []byte(`{"id":"b","fields":[{"name":"y"}]}`)},
		"README.md":     {Data: []byte("ignored")},
	}
	catalog, err := formdef.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, catalog.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	fsys["c.yaml"] = &fstest.MapFile{Data: []byte("id: a\nfields:\n  - name: z\n")}
	if _, err := formdef.LoadFS(fsys); err == nil || !strings.Contains(err.Error(), "duplicate definition") {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	empty, err := formdef.LoadFS(nil)
	if err != nil || !empty.Empty() {
		t.Fatalf("nil filesystem should yield an empty catalog, got %v", err)
	}
}

func TestCheck_ReportsReferences(t *testing.T) {
	def, err := formdef.Parse([]byte(`
id: broken
rules: nope
fields:
  - name: email
  - name: orphan
steps:
  - name: one
    fields: [email, phone]
  - name: two
    fields: [email]
refine:
  - kind: equals
    field: email
    other: missing
messages:
  ghost:
    default: boo
`), "broken.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	err = def.Check(context.Background())
	var checkErr *formdef.CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("expected CheckError, got %v", err)
	}

	var got []string
	for _, issue := range checkErr.Issues {
		got = append(got, issue.Path+" "+issue.Field)
	}
	want := []string{
		"#/rules ",
		"#/steps/0/fields/1 phone",
		"#/steps/1/fields/0 email",
		"#/fields orphan",
		"#/refine/0 missing",
		"#/refine/0/message email",
		"#/messages ghost",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(checkErr.Error(), "and 6 more") {
		t.Fatalf("unexpected error text %q", checkErr.Error())
	}
}

func TestCheck_Schema(t *testing.T) {
	def, err := formdef.Parse([]byte(`
id: schema
fields:
  - name: email
schema:
  type: string
  required: [email, phone]
`), "schema.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	err = def.Check(context.Background())
	var checkErr *formdef.CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("expected CheckError, got %v", err)
	}
	paths := map[string]bool{}
	for _, issue := range checkErr.Issues {
		paths[issue.Path] = true
	}
	for _, want := range []string{"#/schema/type", "#/schema/required"} {
		if !paths[want] {
			t.Fatalf("expected issue at %s, got %+v", want, checkErr.Issues)
		}
	}
}

func TestValidator_RulesAndRefinements(t *testing.T) {
	def, err := formdef.Parse([]byte(`
id: custom
rules: signin
fields:
  - name: email
  - name: password
  - name: confirm
refine:
  - kind: equals
    field: confirm
    other: password
    message: must match
`), "custom.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	validate, err := def.Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	got := validate(field.Snapshot{"email": "a@b.co", "password": "12345678", "confirm": "x"}).Clone()
	if diff := cmp.Diff(validation.Result{"confirm": "must match"}, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	def.Rules = "unknown"
	if _, err := def.Validator(); err == nil {
		t.Fatalf("expected unknown rules error")
	}
}
