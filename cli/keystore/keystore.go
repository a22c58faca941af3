// Package keystore stores API keys for the gemkit CLI in an encrypted file.
package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// Keystore defines the interface for secure key storage.
type Keystore interface {
	// Set stores a key-value pair, replacing any previous value.
	Set(name, value string) error
	// Get retrieves a value by name. Returns *ErrKeyNotFound if absent.
	Get(name string) (string, error)
	// Delete removes a key by name.
	Delete(name string) error
	// List returns all stored key names, sorted.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// IsNotFound reports whether err is an *ErrKeyNotFound.
func IsNotFound(err error) bool {
	var nf *ErrKeyNotFound
	return errors.As(err, &nf)
}

// MasterKeyEnv names the environment variable holding an explicit master key.
const MasterKeyEnv = "GEMKIT_MASTER_KEY"

// MasterKeySource supplies the secret the file encryption key is derived from.
type MasterKeySource interface {
	MasterKey() ([]byte, error)
}

// EnvKeySource reads the master key from an environment variable.
type EnvKeySource struct {
	Var string
}

// MasterKey returns the variable's value, or an error when it is unset.
func (s EnvKeySource) MasterKey() ([]byte, error) {
	v := os.Getenv(s.Var)
	if v == "" {
		return nil, errors.New("keystore: " + s.Var + " is not set")
	}
	return []byte(v), nil
}

// MachineKeySource derives a master key from the host name and user.
// It is predictable; set GEMKIT_MASTER_KEY for anything beyond a workstation.
type MachineKeySource struct{}

// MasterKey returns the machine-bound key material.
func (MachineKeySource) MasterKey() ([]byte, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	return []byte(host + ":" + user + ":gemkit-keystore"), nil
}

// StaticKeySource is a fixed master key.
type StaticKeySource []byte

// MasterKey returns the key itself.
func (s StaticKeySource) MasterKey() ([]byte, error) {
	if len(s) == 0 {
		return nil, errors.New("keystore: empty master key")
	}
	return []byte(s), nil
}

// DefaultKeySource prefers GEMKIT_MASTER_KEY and falls back to the machine key.
func DefaultKeySource() MasterKeySource {
	if os.Getenv(MasterKeyEnv) != "" {
		return EnvKeySource{Var: MasterKeyEnv}
	}
	return MachineKeySource{}
}

// DefaultKeystorePath returns the default keystore file path.
// - macOS/Linux: ~/.gemkit/keys.enc
// - Windows: %USERPROFILE%\.gemkit\keys.enc
func DefaultKeystorePath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "keys.enc"
	}

	return filepath.Join(homeDir, ".gemkit", "keys.enc")
}

// NewKeystore opens the keystore at the default path with the default key source.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath(), DefaultKeySource())
}
