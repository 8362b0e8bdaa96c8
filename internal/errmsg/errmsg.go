// Package errmsg normalises heterogeneous server failure payloads into a
// single user-facing string. The upstream validator phrases its rejections as
// "<field> must match pattern ..." style messages, so translation is an
// ordered list of substring rules evaluated top to bottom, first match wins.
//
// The mixed case sensitivity is deliberate and mirrors the observed server
// behaviour: the outer "match pattern" and "password" checks are
// case-sensitive while the field-name checks inside rule 1 are not. Do not
// "fix" this without verifying actual server message casing.
package errmsg

import (
	"strings"

	appErrors "github.com/gestor-eventos/eventctl/pkg/errors"
)

// User-facing messages produced by translation.
const (
	MsgInvalidEmail     = "Formato de email inválido"
	MsgInvalidName      = "Formato de nombre inválido"
	MsgPasswordTooShort = "La contraseña es demasiado corta"
	MsgCheckInput       = "Verifica los datos"
	MsgGeneric          = "Algo salió mal, inténtalo de nuevo"
)

// failure is the flattened view of a server rejection: the two optional
// payload fields plus the HTTP status.
type failure struct {
	message string
	err     string
	status  int
}

type rule struct {
	name   string
	match  func(failure) bool
	render func(failure) string
}

// rules is the single source of truth for translation precedence.
var rules = []rule{
	{
		name:  "pattern mismatch",
		match: func(f failure) bool { return f.message != "" && strings.Contains(f.message, "match pattern") },
		render: func(f failure) string {
			lower := strings.ToLower(f.message)
			switch {
			case strings.Contains(lower, "email"):
				return MsgInvalidEmail
			case strings.Contains(lower, "name"):
				return MsgInvalidName
			default:
				return f.message
			}
		},
	},
	{
		name:   "password",
		match:  func(f failure) bool { return f.message != "" && strings.Contains(f.message, "password") },
		render: func(f failure) string { return MsgPasswordTooShort },
	},
	{
		name:   "verbatim message",
		match:  func(f failure) bool { return f.message != "" },
		render: func(f failure) string { return f.message },
	},
	{
		name:   "verbatim error",
		match:  func(f failure) bool { return f.err != "" },
		render: func(f failure) string { return f.err },
	},
	{
		name:   "bad request",
		match:  func(f failure) bool { return f.status == 400 },
		render: func(f failure) string { return MsgCheckInput },
	},
	{
		name:   "fallback",
		match:  func(f failure) bool { return true },
		render: func(f failure) string { return MsgGeneric },
	},
}

func translate(f failure) string {
	for _, r := range rules {
		if r.match(f) {
			return r.render(f)
		}
	}
	return MsgGeneric
}

// Translate maps any error coming back from the gateway to one user-facing
// string. Local validation errors keep their own message; everything else
// goes through the rule table. Transport failures carry no payload and fall
// through to the status/fallback rules.
func Translate(err error) string {
	e := appErrors.FromError(err)
	if e == nil {
		return ""
	}
	if e.Code == appErrors.CodeLocalValidation {
		return e.Message
	}
	return translate(failure{message: e.DataMessage, err: e.DataError, status: e.Status})
}
