package authapi

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

var errNilClient = errors.New("authapi: client is nil")

// SigninAction submits the login form. onToken receives the response on
// success; an error from onToken fails the submission.
func SigninAction(client *Client, onToken func(SigninResponse) error) form.SubmitFunc {
	return func(ctx context.Context, values field.Snapshot) error {
		if client == nil {
			return errNilClient
		}
		resp, err := client.Signin(ctx, SigninRequest{
			Email:    strings.TrimSpace(values.String(validation.FieldEmail)),
			Password: values.String(validation.FieldPassword),
		})
		if err != nil {
			return err
		}
		if onToken != nil {
			return onToken(resp)
		}
		return nil
	}
}

// SignupAction submits the signup form. The nickname is sent as the account
// name; empty bio and avatar are omitted.
func SignupAction(client *Client, onUser func(User) error) form.SubmitFunc {
	return func(ctx context.Context, values field.Snapshot) error {
		if client == nil {
			return errNilClient
		}
		user, err := client.Signup(ctx, SignupRequestFromValues(values))
		if err != nil {
			return err
		}
		if onUser != nil {
			return onUser(user)
		}
		return nil
	}
}

// SignupRequestFromValues maps signup form values to the request body.
func SignupRequestFromValues(values field.Snapshot) SignupRequest {
	return SignupRequest{
		Name:     strings.TrimSpace(values.String(validation.FieldNickName)),
		Email:    strings.TrimSpace(values.String(validation.FieldEmail)),
		Password: values.String(validation.FieldPassword),
		Bio:      strings.TrimSpace(values.String(validation.FieldBio)),
		Avatar:   strings.TrimSpace(values.String(validation.FieldAvatar)),
	}
}
