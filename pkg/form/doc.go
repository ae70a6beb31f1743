// Package form implements the form state controller shared by the login and
// signup flows.
//
// A Controller owns a field.Store and a validation.Validator. Every value
// change re-runs the validator over the complete snapshot and replaces all
// field errors, so cross-field rules (password confirmation) stay correct no
// matter which field was edited. Two read policies sit on top of the same
// errors and are deliberately kept apart:
//
//   - IsValid reports whether the form is submittable (no field has an error,
//     touched or not).
//   - DisplayError reports what the UI should show inline (the error, but only
//     once the field has been touched).
//
// Submit re-validates, withholds the action when anything is invalid (marking
// every field touched so the errors surface), and otherwise runs the injected
// SubmitFunc. The in-flight phase of SubmissionState doubles as the
// reentrancy guard: a Submit received while another is in flight is dropped,
// never queued.
//
// Quick start:
//
//	ctrl, err := form.New(form.Config{
//	    InitialValues: map[string]any{"email": "", "password": ""},
//	    Validator:     validation.Signin(),
//	    OnSubmit:      authapi.SigninAction(client, saveToken),
//	})
//	email := ctrl.MustInputProps("email")
//	email.OnChange("me@example.com")
//	email.OnBlur()
//	result, err := ctrl.Submit(ctx)
package form
