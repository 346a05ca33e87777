package settings

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrInvalidKey is returned when the key file does not hold a 32-byte key.
	ErrInvalidKey = errors.New("invalid settings key")
	// ErrDecrypt is returned when the settings file cannot be opened with the key.
	ErrDecrypt = errors.New("cannot decrypt settings file")
)

// FileStore keeps Settings as a secretbox-sealed JSON document.
// The key lives in its own file and is generated on first use.
type FileStore struct {
	mu           sync.Mutex
	settingsFile string
	keyFile      string
}

// NewFileStore returns a store backed by settingsFile and keyFile.
func NewFileStore(settingsFile, keyFile string) *FileStore {
	return &FileStore{
		settingsFile: settingsFile,
		keyFile:      keyFile,
	}
}

// Load decrypts the settings file. A missing file is created with empty
// settings, which are returned.
func (f *FileStore) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var s Settings
	key, err := f.loadKey()
	if err != nil {
		return s, err
	}

	sealed, err := os.ReadFile(f.settingsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return s, f.save(key, s)
	}
	if err != nil {
		return s, fmt.Errorf("Load: cannot read settings file: %w", err)
	}

	if len(sealed) < nonceSize {
		return s, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return s, ErrDecrypt
	}
	if err := json.Unmarshal(plain, &s); err != nil {
		return s, fmt.Errorf("Load: cannot decode settings: %w", err)
	}
	return s, nil
}

// Save encrypts and writes s.
func (f *FileStore) Save(s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, err := f.loadKey()
	if err != nil {
		return err
	}
	return f.save(key, s)
}

func (f *FileStore) save(key *[keySize]byte, s Settings) error {
	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("Save: cannot encode settings: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("Save: cannot generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, key)

	if err := os.MkdirAll(filepath.Dir(f.settingsFile), 0o700); err != nil {
		return fmt.Errorf("Save: cannot create settings directory: %w", err)
	}
	if err := atomic.WriteFile(f.settingsFile, bytes.NewReader(sealed)); err != nil {
		return fmt.Errorf("Save: cannot write settings file: %w", err)
	}
	return nil
}

func (f *FileStore) loadKey() (*[keySize]byte, error) {
	raw, err := os.ReadFile(f.keyFile)
	if errors.Is(err, fs.ErrNotExist) {
		return f.generateKey()
	}
	if err != nil {
		return nil, fmt.Errorf("loadKey: cannot read key file: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrInvalidKey, f.keyFile, len(raw))
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &key, nil
}

func (f *FileStore) generateKey() (*[keySize]byte, error) {
	var key [keySize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, fmt.Errorf("generateKey: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.keyFile), 0o700); err != nil {
		return nil, fmt.Errorf("generateKey: cannot create key directory: %w", err)
	}
	if err := atomic.WriteFile(f.keyFile, bytes.NewReader(key[:])); err != nil {
		return nil, fmt.Errorf("generateKey: cannot write key file: %w", err)
	}
	return &key, nil
}
