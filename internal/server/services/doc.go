// Package services contains the event portal's business rules: registration
// policy, login, approval with credential provisioning, notification
// broadcast and roster export. HTTP handlers translate requests into these
// calls and map the returned sentinel errors to status codes.
package services
