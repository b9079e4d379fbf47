// Package filestore persists credentials as a JSON document on disk, optionally sealed
// with XChaCha20-Poly1305.
package filestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"golang.org/x/crypto/chacha20poly1305"
)

const filePerm = 0o600

var _ credentials.Store = (*Store)(nil)

// document maps namespace -> field -> value
type document map[string]map[string]string

type Store struct {
	path      string
	namespace string
	aead      cipher.AEAD
	mu        sync.Mutex
}

// New creates a store at path. A nil key stores plaintext JSON; otherwise key must be 32 bytes.
func New(path, namespace string, key []byte) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("filestore: path is required")
	}
	if namespace == "" {
		return nil, fmt.Errorf("filestore: namespace is required")
	}
	s := &Store{path: path, namespace: namespace}
	if key != nil {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("filestore: invalid key: %w", err)
		}
		s.aead = aead
	}
	return s, nil
}

func (s *Store) Load(_ context.Context) (*credentials.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	fields, ok := doc[s.namespace]
	if !ok {
		return nil, nil
	}
	pair := credentials.FromFields(fields)
	if pair.Empty() {
		return nil, nil
	}
	return &pair, nil
}

func (s *Store) Save(_ context.Context, pair credentials.Pair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if pair.Empty() {
		delete(doc, s.namespace)
	} else {
		doc[s.namespace] = pair.Fields()
	}
	return s.write(doc)
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc[s.namespace]; !ok {
		return nil
	}
	delete(doc, s.namespace)
	return s.write(doc)
}

func (s *Store) read() (document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return document{}, nil
	}
	if s.aead != nil {
		if raw, err = s.open(raw); err != nil {
			return nil, err
		}
	}
	doc := document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file through a temp file and rename so readers never see a torn document
func (s *Store) write(doc document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}
	if s.aead != nil {
		if raw, err = s.seal(raw); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("filestore: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("filestore: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("filestore: replace %s: %w", s.path, err)
	}
	return nil
}

// seal returns nonce || ciphertext
func (s *Store) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("filestore: generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, fmt.Errorf("filestore: %s is too short to be sealed", s.path)
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("filestore: decrypt %s: %w", s.path, err)
	}
	return plain, nil
}
