// Package models contains the persisted entities of the event portal.
package models
