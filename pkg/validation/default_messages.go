package validation

import (
	"fmt"
	"strings"
)

// DefaultMessage builds a generic message for a failed validator tag.
func DefaultMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "numeric", "number":
		return fmt.Sprintf("%s must be a number", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "len":
		return fmt.Sprintf("%s must have length %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, lowerFirst(param))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "hexadecimal":
		return fmt.Sprintf("%s must be a hexadecimal string", field)
	case PasswordPolicyTag:
		return fmt.Sprintf("%s must contain a lowercase letter, an uppercase letter and a digit and must not be a common password", field)
	case PersonNameTag:
		return fmt.Sprintf("%s may only contain letters and spaces", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// CustomMessage returns a field specific override for tag, or "".
func CustomMessage(field, tag string) string {
	return customValidationMessages[field][tag]
}

var customValidationMessages = map[string]map[string]string{
	"email": {
		"required": "Email is required",
		"email":    "Invalid email address",
		"max":      "Email is too long",
	},
	"password": {
		"required":        "Password is required",
		"min":             "Password must be at least 8 characters",
		"max":             "Password is too long",
		PasswordPolicyTag: "Password must be 8-128 characters with a lowercase letter, an uppercase letter and a digit, and must not be a common password",
	},
	"name": {
		"required":    "Name is required",
		"min":         "Name must be 2-100 characters",
		"max":         "Name must be 2-100 characters",
		PersonNameTag: "Name may only contain letters and spaces",
	},
	"refreshToken": {
		"required": "Refresh token is required",
	},
	"topicId": {
		"required": "Invalid topic ID",
		"gte":      "Invalid topic ID",
	},
	"lessonId": {
		"required": "Invalid lesson ID",
		"gte":      "Invalid lesson ID",
	},
	"score": {
		"required": "Score must be an object",
	},
	"score.correct": {
		"gte":      "Correct answers must be a non-negative number",
		"ltefield": "Correct answers cannot exceed the total",
	},
	"score.total": {
		"required": "Total questions must be a positive number",
		"gte":      "Total questions must be a positive number",
	},
	"percentage": {
		"required": "Percentage must be between 0 and 100",
		"gte":      "Percentage must be between 0 and 100",
		"lte":      "Percentage must be between 0 and 100",
	},
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
