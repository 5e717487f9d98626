package constants

// Field Length Limits
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MinNameLength     = 2
	MaxNameLength     = 100
	MaxEmailLength    = 255
)

// Token Settings
const (
	RefreshTokenBytes = 40 // hex encoded to 80 characters
)

// CommonPasswords are rejected at registration regardless of case.
var CommonPasswords = []string{
	"password",
	"12345678",
	"qwerty123",
	"password123",
	"admin123",
}

// RedactedFields never have their submitted value echoed in validation errors.
var RedactedFields = map[string]bool{
	"password":     true,
	"refreshToken": true,
	"token":        true,
}
