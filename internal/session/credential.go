// Package session decides at launch whether a persisted credential lets the
// visitor skip the login screen, and tears the session down on forced logout.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"docent/internal/types"
)

// ErrNoCredential is returned by stores when nothing is persisted.
var ErrNoCredential = errors.New("no credential stored")

// Credential is the persisted proof of a previous login. Token is opaque.
type Credential struct {
	Token string
	User  types.UserInfo
}

// Empty reports whether the token is missing or blank.
func (c Credential) Empty() bool {
	return strings.TrimSpace(c.Token) == ""
}

// CredentialStore persists at most one credential.
type CredentialStore interface {
	Get(ctx context.Context) (Credential, error)
	Set(ctx context.Context, c Credential) error
	Clear(ctx context.Context) error
}

// MemoryCredentials is an in-process CredentialStore.
type MemoryCredentials struct {
	mu   sync.Mutex
	cred *Credential
}

// NewMemoryCredentials returns an empty store.
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{}
}

func (m *MemoryCredentials) Get(ctx context.Context) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return Credential{}, ErrNoCredential
	}
	return *m.cred, nil
}

func (m *MemoryCredentials) Set(ctx context.Context, c Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &c
	return nil
}

func (m *MemoryCredentials) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}

var _ CredentialStore = (*MemoryCredentials)(nil)
