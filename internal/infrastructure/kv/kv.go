// Package kv is the string key/value store behind settings and records.
package kv

import (
	"context"
	"errors"
)

// Keys of the persisted documents
const (
	SettingsKey = "settingFormData"
	RecordsKey  = "conversationRecords"
)

var ErrNotFound = errors.New("kv: key not found")

// Store holds JSON documents by key. Get returns ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
