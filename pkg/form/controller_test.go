package form_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

func noopSubmit(context.Context, field.Snapshot) error { return nil }

func newSignin(t *testing.T, submit form.SubmitFunc, options ...form.Option) *form.Controller {
	t.Helper()
	if submit == nil {
		submit = noopSubmit
	}
	ctrl, err := form.New(form.Config{
		InitialValues: map[string]any{"email": "", "password": ""},
		Validator:     validation.Signin(),
		OnSubmit:      submit,
	}, options...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

func newSignup(t *testing.T, submit form.SubmitFunc) *form.Controller {
	t.Helper()
	if submit == nil {
		submit = noopSubmit
	}
	ctrl, err := form.New(form.Config{
		InitialValues: map[string]any{
			"email": "", "password": "", "passwordCheck": "", "nickName": "", "bio": "", "avatar": "",
		},
		Validator: validation.Signup(),
		OnSubmit:  submit,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

func TestNew_RequiresFieldsAndAction(t *testing.T) {
	if _, err := form.New(form.Config{OnSubmit: noopSubmit}); !errors.Is(err, form.ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
	if _, err := form.New(form.Config{InitialValues: map[string]any{"email": ""}}); !errors.Is(err, form.ErrNoSubmitAction) {
		t.Fatalf("expected ErrNoSubmitAction, got %v", err)
	}
}

func TestOnChange_InvalidEmail(t *testing.T) {
	ctrl := newSignin(t, nil)

	ctrl.MustInputProps("email").OnChange("bad")

	props := ctrl.MustInputProps("email")
	if props.Error == "" {
		t.Fatalf("expected email error")
	}
	if !props.Touched {
		t.Fatalf("expected email to be touched")
	}
	if props.DisplayError() != props.Error {
		t.Fatalf("touched field must display its error")
	}
	if ctrl.IsValid() {
		t.Fatalf("expected form to be invalid")
	}
	if got := ctrl.DisplayError("password"); got != "" {
		t.Fatalf("untouched password must not display an error, got %q", got)
	}
}

func TestIsValid_SeparateFromDisplayPolicy(t *testing.T) {
	ctrl, err := form.New(form.Config{
		InitialValues: map[string]any{"email": "not-an-email", "password": "12345678"},
		Validator:     validation.Signin(),
		OnSubmit:      noopSubmit,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	f, _ := ctrl.Field("email")
	if f.Error == "" {
		t.Fatalf("pre-filled field must be validated at construction")
	}
	if f.Touched {
		t.Fatalf("pre-filled field must start untouched")
	}
	if ctrl.DisplayError("email") != "" {
		t.Fatalf("untouched errors stay hidden")
	}
	if ctrl.IsValid() {
		t.Fatalf("untouched errors still block submission")
	}

	ctrl.MustInputProps("email").OnBlur()
	if ctrl.DisplayError("email") == "" {
		t.Fatalf("blur should surface the error")
	}
	if got := ctrl.Values().String("email"); got != "not-an-email" {
		t.Fatalf("blur must not change the value, got %q", got)
	}
}

func TestCrossFieldRevalidation(t *testing.T) {
	ctrl := newSignup(t, nil)

	_ = ctrl.SetValue("password", "12345678")
	_ = ctrl.SetValue("passwordCheck", "12345678")
	if got := ctrl.Errors().Get("passwordCheck"); got != "" {
		t.Fatalf("matching confirmation should be valid, got %q", got)
	}

	_ = ctrl.SetValue("password", "abcdefgh")
	if got := ctrl.Errors().Get("passwordCheck"); got != validation.MsgPasswordMismatch {
		t.Fatalf("editing password must revalidate confirmation, got %q", got)
	}
	if got := ctrl.Errors().Get("password"); got != "" {
		t.Fatalf("mismatch must not be keyed to password, got %q", got)
	}
}

func TestUnknownField(t *testing.T) {
	ctrl := newSignin(t, nil)

	var unknown *field.UnknownFieldError
	if err := ctrl.SetValue("nickName", "x"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if err := ctrl.Blur("nickName"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if _, err := ctrl.InputProps("nickName"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if _, err := ctrl.ValidateFields("email", "nickName"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("MustInputProps should panic on an unknown field")
		}
	}()
	ctrl.MustInputProps("nickName")
}

func TestSubmit_Success(t *testing.T) {
	var got field.Snapshot
	var phases []form.Phase
	var ctrl *form.Controller
	ctrl = newSignup(t, func(_ context.Context, values field.Snapshot) error {
		got = values
		phases = append(phases, ctrl.SubmissionState().Phase)
		return nil
	})

	if state := ctrl.SubmissionState(); state.Phase != form.PhaseIdle {
		t.Fatalf("expected idle, got %s", state)
	}

	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.SetValue("password", "12345678")
	_ = ctrl.SetValue("passwordCheck", "12345678")
	_ = ctrl.SetValue("nickName", "umc")
	if !ctrl.IsValid() {
		t.Fatalf("expected valid form, errors: %v", ctrl.Errors().Clone())
	}

	result, err := ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result != form.SubmitSucceeded {
		t.Fatalf("expected succeeded, got %s", result)
	}
	if diff := cmp.Diff([]form.Phase{form.PhaseInFlight}, phases); diff != "" {
		t.Fatalf("phase during action mismatch (-want +got):\n%s", diff)
	}
	state := ctrl.SubmissionState()
	if !state.Succeeded() || state.Attempt == "" {
		t.Fatalf("expected settled success with attempt id, got %+v", state)
	}
	want := field.Snapshot{
		"email": "a@b.co", "password": "12345678", "passwordCheck": "12345678",
		"nickName": "umc", "bio": "", "avatar": "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submitted snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_InvalidTouchesEverything(t *testing.T) {
	var calls int32
	ctrl := newSignin(t, func(context.Context, field.Snapshot) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	result, err := ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("validation failure must not be returned as an error: %v", err)
	}
	if result != form.SubmitInvalid {
		t.Fatalf("expected invalid, got %s", result)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("action must not run for an invalid form")
	}
	for _, f := range ctrl.Fields() {
		if !f.Touched {
			t.Fatalf("expected %s to be touched", f.Name)
		}
		if ctrl.DisplayError(f.Name) == "" {
			t.Fatalf("expected %s error to be displayed", f.Name)
		}
	}
	if state := ctrl.SubmissionState(); state.Phase != form.PhaseIdle {
		t.Fatalf("invalid submit must not change submission state, got %s", state)
	}
}

func TestSubmit_DroppedWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	ctrl := newSignin(t, func(context.Context, field.Snapshot) error {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return nil
	})
	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.SetValue("password", "12345678")

	var wg sync.WaitGroup
	wg.Add(1)
	var first form.SubmitResult
	go func() {
		defer wg.Done()
		first, _ = ctrl.Submit(context.Background())
	}()

	<-started
	if !ctrl.SubmissionState().InFlight() {
		t.Fatalf("expected in-flight state")
	}

	for i := 0; i < 3; i++ {
		result, err := ctrl.Submit(context.Background())
		if err != nil || result != form.SubmitDropped {
			t.Fatalf("expected dropped submit, got %s, %v", result, err)
		}
	}

	if err := ctrl.SetValue("email", "other@b.co"); err != nil {
		t.Fatalf("edits must stay responsive while in flight: %v", err)
	}

	close(release)
	wg.Wait()

	if first != form.SubmitSucceeded {
		t.Fatalf("expected first submit to succeed, got %s", first)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly one action call, got %d", got)
	}
}

func TestSubmit_FailureAndManualRetry(t *testing.T) {
	attempts := 0
	ctrl := newSignin(t, func(context.Context, field.Snapshot) error {
		attempts++
		if attempts == 1 {
			return form.NewFailure(409, "email already exists", map[string][]string{
				"/body/email": {"email already exists"},
				"":            {"try another address"},
			})
		}
		return nil
	})
	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.SetValue("password", "12345678")

	result, err := ctrl.Submit(context.Background())
	if result != form.SubmitFailed || err == nil {
		t.Fatalf("expected failed submit with error, got %s, %v", result, err)
	}
	if err.Error() != "email already exists" {
		t.Fatalf("unexpected error %q", err)
	}

	state := ctrl.SubmissionState()
	if !state.Failed() {
		t.Fatalf("expected failed state, got %s", state)
	}
	if !strings.Contains(state.String(), "email already exists") {
		t.Fatalf("unexpected state string %q", state.String())
	}
	if diff := cmp.Diff([]string{"email already exists"}, state.FieldFailures("email")); diff != "" {
		t.Fatalf("field failures mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"try another address"}, state.Failure.Form); diff != "" {
		t.Fatalf("form failures mismatch (-want +got):\n%s", diff)
	}
	if ctrl.Errors().Get("email") != "" {
		t.Fatalf("server failures must not leak into validation errors")
	}

	result, err = ctrl.Submit(context.Background())
	if result != form.SubmitSucceeded || err != nil {
		t.Fatalf("expected retry to succeed, got %s, %v", result, err)
	}
	if !ctrl.SubmissionState().Succeeded() {
		t.Fatalf("expected success after retry")
	}
}

func TestSubmit_PlainErrorFailure(t *testing.T) {
	boom := errors.New("network down")
	ctrl := newSignin(t, func(context.Context, field.Snapshot) error { return boom })
	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.SetValue("password", "12345678")

	if _, err := ctrl.Submit(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected action error, got %v", err)
	}
	state := ctrl.SubmissionState()
	if !errors.Is(state.Err, boom) || state.Failure != nil {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestSubmit_PanickingActionSettles(t *testing.T) {
	calls := 0
	ctrl := newSignin(t, func(context.Context, field.Snapshot) error {
		calls++
		if calls == 1 {
			panic("nil token")
		}
		return nil
	})
	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.SetValue("password", "12345678")

	result, err := ctrl.Submit(context.Background())
	if result != form.SubmitFailed || !errors.Is(err, form.ErrSubmitPanicked) {
		t.Fatalf("expected failed submit wrapping ErrSubmitPanicked, got %s, %v", result, err)
	}
	if !strings.Contains(err.Error(), "nil token") {
		t.Fatalf("panic value missing from %q", err)
	}
	state := ctrl.SubmissionState()
	if !state.Failed() || !errors.Is(state.Err, form.ErrSubmitPanicked) {
		t.Fatalf("expected settled failure, got %s", state)
	}

	result, err = ctrl.Submit(context.Background())
	if result != form.SubmitSucceeded || err != nil {
		t.Fatalf("expected retry to succeed, got %s, %v", result, err)
	}
	if calls != 2 {
		t.Fatalf("expected two action calls, got %d", calls)
	}
}

func TestWithSanitizer(t *testing.T) {
	ctrl, err := form.New(form.Config{
		InitialValues: map[string]any{"nickName": "", "password": ""},
		OnSubmit:      noopSubmit,
	}, form.WithSanitizer(func(v any) any {
		return strings.TrimSpace(v.(string))
	}, "nickName"))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	_ = ctrl.SetValue("nickName", "  umc  ")
	_ = ctrl.SetValue("password", "  secret  ")

	want := field.Snapshot{"nickName": "umc", "password": "  secret  "}
	if diff := cmp.Diff(want, ctrl.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe(t *testing.T) {
	var early, late int
	ctrl := newSignin(t, nil, form.WithListener(func() { early++ }))
	cancel := ctrl.Subscribe(func() { late++ })

	_ = ctrl.SetValue("email", "a@b.co")
	_ = ctrl.Blur("password")
	cancel()
	_ = ctrl.SetValue("email", "b@b.co")

	if early != 3 {
		t.Fatalf("expected 3 notifications for construction listener, got %d", early)
	}
	if late != 2 {
		t.Fatalf("expected 2 notifications before cancel, got %d", late)
	}
}

func TestValidateFields_SubsetOnly(t *testing.T) {
	ctrl := newSignup(t, nil)
	_ = ctrl.SetValue("email", "a@b.co")

	ok, err := ctrl.ValidateFields("email")
	if err != nil || !ok {
		t.Fatalf("expected email subset to be valid, got %v, %v", ok, err)
	}
	if f, _ := ctrl.Field("password"); f.Touched {
		t.Fatalf("fields outside the subset must stay untouched")
	}

	ok, _ = ctrl.ValidateFields("password", "passwordCheck")
	if ok {
		t.Fatalf("expected empty passwords to be invalid")
	}
	touched := map[string]bool{}
	for _, f := range ctrl.Fields() {
		touched[f.Name] = f.Touched
	}
	want := map[string]bool{
		"email": true, "password": true, "passwordCheck": true,
		"nickName": false, "bio": false, "avatar": false,
	}
	if diff := cmp.Diff(want, touched); diff != "" {
		t.Fatalf("touched mismatch (-want +got):\n%s", diff)
	}

	valid, err := ctrl.FieldsValid("nickName")
	if err != nil || valid {
		t.Fatalf("expected nickName to be reported invalid, got %v, %v", valid, err)
	}
	if f, _ := ctrl.Field("nickName"); f.Touched {
		t.Fatalf("FieldsValid must not touch fields")
	}
}
