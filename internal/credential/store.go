package credential

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unicode"

	"simplirtc/native/internal/domain"

	"github.com/google/renameio/v2"
)

const fileMode = 0o600

// StoreError indicates a credential storage error.
type StoreError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s credentials %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store keeps the refresh token in a single file. The file always holds
// either the previous token or the newest one: writes go to a temporary file
// that is renamed over the target.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store backed by path. The file is not touched until
// Load or Save is called.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the refresh token. The canonical encoding is a JSON string;
// bare text written by older versions is accepted as well.
func (s *Store) Load() (domain.RefreshToken, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &StoreError{Op: "load", Path: s.path, Err: domain.ErrCredentialNotFound}
		}
		return "", &StoreError{Op: "load", Path: s.path, Err: fmt.Errorf("%w: %w", domain.ErrCredentialIO, err)}
	}

	token, err := decode(data)
	if err != nil {
		return "", &StoreError{Op: "load", Path: s.path, Err: err}
	}
	return token, nil
}

// Save replaces the file content with token.
func (s *Store) Save(token domain.RefreshToken) error {
	data, err := json.Marshal(string(token))
	if err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: fmt.Errorf("%w: %w", domain.ErrCredentialIO, err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := renameio.WriteFile(s.path, data, fileMode); err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: fmt.Errorf("%w: %w", domain.ErrCredentialIO, err)}
	}
	slog.Debug("refresh token saved", "component", "credential", "path", s.path)
	return nil
}

func decode(data []byte) (domain.RefreshToken, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrCorruptCredential)
	}

	if trimmed[0] == '"' {
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrCorruptCredential, err)
		}
		return domain.RefreshToken(token), nil
	}

	// Any other JSON value (object, array, number, literal) is not a token.
	if json.Valid(trimmed) {
		return "", fmt.Errorf("%w: not a JSON string", domain.ErrCorruptCredential)
	}

	raw := string(trimmed)
	if strings.IndexFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return "", fmt.Errorf("%w: unexpected whitespace in raw token", domain.ErrCorruptCredential)
	}
	return domain.RefreshToken(raw), nil
}
