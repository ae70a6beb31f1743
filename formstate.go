// Package formstate is the top-level entry point for the login and signup
// forms. It builds controllers and wizards from the bundled definitions so
// callers only supply the submit action.
//
// Quick start:
//
//	client, _ := authapi.New("")
//	login, err := formstate.NewLoginForm(authapi.SigninAction(client, saveToken))
//	_ = login.SetValue("email", "me@example.com")
//	_ = login.SetValue("password", "hunter22")
//	result, err := login.Submit(ctx)
package formstate

import (
	"fmt"
	"io/fs"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/wizard"
)

// Definition ids bundled with the module.
const (
	LoginFormID  = "login"
	SignupFormID = "signup"
)

// Controller aliases form.Controller.
type Controller = form.Controller

// Wizard aliases wizard.Wizard.
type Wizard = wizard.Wizard

// Validator aliases validation.Validator.
type Validator = validation.Validator

// Snapshot aliases field.Snapshot.
type Snapshot = field.Snapshot

// SubmitFunc aliases form.SubmitFunc.
type SubmitFunc = form.SubmitFunc

// DefinitionsFS exposes the bundled definition files so callers can copy or
// extend them.
func DefinitionsFS() fs.FS {
	return formdef.EmbeddedFS()
}

// Definition returns a bundled definition by id.
func Definition(id string) (formdef.Definition, error) {
	catalog, err := formdef.Embedded()
	if err != nil {
		return formdef.Definition{}, err
	}
	def, ok := catalog.Get(id)
	if !ok {
		return formdef.Definition{}, fmt.Errorf("formstate: unknown form %q", id)
	}
	return def, nil
}

// NewLoginForm builds the sign-in controller.
func NewLoginForm(onSubmit SubmitFunc, options ...formdef.BuildOption) (*Controller, error) {
	def, err := Definition(LoginFormID)
	if err != nil {
		return nil, err
	}
	ctrl, _, err := def.Build(onSubmit, options...)
	return ctrl, err
}

// NewSignupWizard builds the three-step signup wizard.
func NewSignupWizard(onSubmit SubmitFunc, options ...formdef.BuildOption) (*Controller, *Wizard, error) {
	def, err := Definition(SignupFormID)
	if err != nil {
		return nil, nil, err
	}
	return def.Build(onSubmit, options...)
}
