package validation

// Field names shared by the sign-in and sign-up forms.
const (
	FieldEmail         = "email"
	FieldPassword      = "password"
	FieldPasswordCheck = "passwordCheck"
	FieldNickName      = "nickName"
	FieldBio           = "bio"
	FieldAvatar        = "avatar"
)

// Password length bounds, inclusive.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 20
)

// Messages used by Signin and Signup.
const (
	MsgInvalidEmail     = "Please enter a valid email address."
	MsgPasswordLength   = "Password must be between 8 and 20 characters."
	MsgPasswordTooShort = "Password must be at least 8 characters."
	MsgPasswordTooLong  = "Password must be at most 20 characters."
	MsgPasswordMismatch = "Passwords do not match."
	MsgNickNameRequired = "Please enter a nickname."
	MsgInvalidURL       = "Please enter an http(s) URL."
)

// Signin validates the login form. Empty inputs fail the email pattern and
// the password length rule, so callers derive the disabled state from the
// Result alone.
func Signin() Validator {
	return Compose(
		Email(FieldEmail, MsgInvalidEmail),
		LengthBetween(FieldPassword, PasswordMinLength, PasswordMaxLength, MsgPasswordLength),
	)
}

// Signup validates the three-step registration form. The confirmation field
// carries both its own length rules and the equality rule; bio and avatar
// are optional, but a non-empty avatar must be an http(s) URL.
func Signup() Validator {
	return Compose(
		Email(FieldEmail, MsgInvalidEmail),
		MinLength(FieldPassword, PasswordMinLength, MsgPasswordTooShort),
		MaxLength(FieldPassword, PasswordMaxLength, MsgPasswordTooLong),
		MinLength(FieldPasswordCheck, PasswordMinLength, MsgPasswordTooShort),
		MaxLength(FieldPasswordCheck, PasswordMaxLength, MsgPasswordTooLong),
		Equals(FieldPasswordCheck, FieldPassword, MsgPasswordMismatch),
		Required(FieldNickName, MsgNickNameRequired),
		HTTPURL(FieldAvatar, MsgInvalidURL),
	)
}
