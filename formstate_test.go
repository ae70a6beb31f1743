package formstate_test

import (
	"context"
	"io/fs"
	"testing"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/form"
)

func noopSubmit(context.Context, formstate.Snapshot) error { return nil }

func TestDefinitionsFS(t *testing.T) {
	for _, name := range []string{"login.yaml", "signup.yaml"} {
		if _, err := fs.ReadFile(formstate.DefinitionsFS(), name); err != nil {
			t.Fatalf("expected %s to be readable: %v", name, err)
		}
	}
	if _, err := formstate.Definition("missing"); err == nil {
		t.Fatalf("expected unknown form error")
	}
}

func TestNewLoginForm(t *testing.T) {
	login, err := formstate.NewLoginForm(noopSubmit)
	if err != nil {
		t.Fatalf("new login form: %v", err)
	}
	login.MustInputProps("email").OnChange("bad")
	if login.DisplayError("email") == "" || login.IsValid() {
		t.Fatalf("expected a displayed email error on an invalid form")
	}
}

func TestNewSignupWizard(t *testing.T) {
	ctrl, wiz, err := formstate.NewSignupWizard(noopSubmit)
	if err != nil {
		t.Fatalf("new signup wizard: %v", err)
	}
	if wiz.Len() != 3 || wiz.Current() != 1 {
		t.Fatalf("expected fresh 3-step wizard, got %d/%d", wiz.Current(), wiz.Len())
	}

	ctx := context.Background()
	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.SetValue("password", "12345678")
	_ = ctrl.SetValue("passwordCheck", "12345678")
	_ = ctrl.SetValue("nickName", "umc")
	for i := 0; i < 3; i++ {
		if _, err := wiz.Advance(ctx); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if state := ctrl.SubmissionState(); state.Phase != form.PhaseSettled || !state.Succeeded() {
		t.Fatalf("expected settled success, got %s", state)
	}
	if wiz.Current() != 3 {
		t.Fatalf("expected to stay on step 3, got %d", wiz.Current())
	}
}
