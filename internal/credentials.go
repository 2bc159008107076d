package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CredentialStore resolves an account identifier to portal credentials
type CredentialStore interface {
	Resolve(account string) (Credentials, error)
}

// accountsFile is the on-disk layout of the credentials file:
//
//	accounts:
//	  siafi_default:
//	    cpf: "00000000000"
//	    senha: "secret"
type accountsFile struct {
	Accounts map[string]Credentials `yaml:"accounts"`
}

// FileCredentialStore reads accounts from a YAML file
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore creates a store backed by path. The file is read on
// every Resolve so edits apply without a restart.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Resolve looks up account in the credentials file
func (s *FileCredentialStore) Resolve(account string) (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials file %s: %w", s.path, err)
	}

	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials file %s: %w", s.path, err)
	}

	creds, ok := file.Accounts[account]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}
	if creds.Identity == "" || creds.Secret == "" {
		return Credentials{}, fmt.Errorf("account %s: cpf and senha are required", account)
	}
	return creds, nil
}

// StaticCredentials serves a fixed set of accounts
type StaticCredentials map[string]Credentials

// Resolve looks up account in the map
func (s StaticCredentials) Resolve(account string) (Credentials, error) {
	creds, ok := s[account]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}
	return creds, nil
}
