// Package auth authenticates gateway callers from RS256-signed bearer tokens.
//
// The Guard offers two forms. The required form rejects the request with
// ErrMissing, ErrMalformed or ErrInvalid. The optional form never fails: it
// yields an explicit Principal that is either Authenticated with the token
// subject as user id, or Anonymous.
package auth
