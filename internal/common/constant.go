// Package common contains shared constants and sentinel errors used across
// event portal components.
package common

// AccessTokenHeaderName is the HTTP header carrying the access token. Both the
// raw token and the "Bearer <token>" form are accepted.
const AccessTokenHeaderName = "Authorization"

// DefaultSystemCapacity is the number of lab systems available to participants.
const DefaultSystemCapacity = 60
