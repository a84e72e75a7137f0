package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/google/renameio/v2"
	"github.com/tonhe/agtoggle/internal/adguard"
)

const (
	ErrNotFound  errors.Error = "instance not found"
	ErrDuplicate errors.Error = "instance already exists"
	ErrNoName    errors.Error = "instance name is empty"
	ErrDecrypt   errors.Error = "failed to decrypt instance store (wrong password?)"
)

type storeFile struct {
	Salt []byte `json:"salt"`
	Data []byte `json:"data"`
}

// FileStore implements Provider with AES-256-GCM encrypted file persistence.
type FileStore struct {
	mu        sync.RWMutex
	path      string
	sealer    *sealer
	instances []Instance
	modTime   time.Time
}

// type check
var _ Provider = (*FileStore)(nil)

// NewFileStore opens or creates an encrypted instance store at the given path.
// A missing file is created with a fresh salt; an existing one is decrypted
// with password.
func NewFileStore(path string, password []byte) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.sealer, err = newSealer(password, nil)
		if err != nil {
			return nil, err
		}
		return s, s.save()
	} else if err != nil {
		return nil, err
	}

	var sf storeFile
	if err = json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("corrupt instance store: %w", err)
	}

	s.sealer, err = newSealer(password, sf.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.sealer.open(sf.Data)
	if err != nil {
		return nil, ErrDecrypt
	}

	if err = json.Unmarshal(plaintext, &s.instances); err != nil {
		return nil, fmt.Errorf("corrupt instance data: %w", err)
	}
	s.modTime = modTime(path)
	return s, nil
}

// modTime returns the modification time of path or the zero time.
func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// Reload re-reads the file if another process changed it since it was last
// read or written.  The file must be sealed with the same password and salt.
func (s *FileStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mt := modTime(s.path)
	if mt.Equal(s.modTime) {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var sf storeFile
	if err = json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("corrupt instance store: %w", err)
	}
	if !bytes.Equal(sf.Salt, s.sealer.salt) {
		return ErrDecrypt
	}
	plaintext, err := s.sealer.open(sf.Data)
	if err != nil {
		return ErrDecrypt
	}
	var instances []Instance
	if err = json.Unmarshal(plaintext, &instances); err != nil {
		return fmt.Errorf("corrupt instance data: %w", err)
	}
	s.instances, s.modTime = instances, mt
	return nil
}

// Exists returns true if a store file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// save encrypts and writes the instances to disk.  s.mu must be locked.
func (s *FileStore) save() error {
	plaintext, err := json.Marshal(s.instances)
	if err != nil {
		return err
	}
	sealed, err := s.sealer.seal(plaintext)
	if err != nil {
		return err
	}
	data, err := json.Marshal(storeFile{Salt: s.sealer.salt, Data: sealed})
	if err != nil {
		return err
	}
	if err = renameio.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	s.modTime = modTime(s.path)
	return nil
}

// index returns the position of the named instance or -1.  s.mu must be
// locked.
func (s *FileStore) index(name string) int {
	return slices.IndexFunc(s.instances, func(inst Instance) bool { return inst.Name == name })
}

// validate checks the fields every stored instance must have.  Instances
// without an address are never stored.
func validate(inst *Instance) error {
	if strings.TrimSpace(inst.Name) == "" {
		return ErrNoName
	}
	if strings.TrimSpace(inst.BaseURI) == "" {
		return fmt.Errorf("instance %q: %w", inst.Name, adguard.ErrNoBaseURI)
	}
	return nil
}

// List returns summaries of all stored instances in order.
func (s *FileStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]Summary, 0, len(s.instances))
	for i := range s.instances {
		summaries = append(summaries, s.instances[i].Summarize())
	}
	return summaries, nil
}

// Get returns the instance with the given name, or ErrNotFound.
func (s *FileStore) Get(name string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(name)
	if i < 0 {
		return nil, ErrNotFound
	}
	inst := s.instances[i]
	return &inst, nil
}

// Add stores a new instance at the end.  Returns ErrDuplicate if the name
// already exists.
func (s *FileStore) Add(inst Instance) error {
	if err := validate(&inst); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(inst.Name) >= 0 {
		return ErrDuplicate
	}
	s.instances = append(s.instances, inst)
	return s.save()
}

// Update replaces an existing instance in place.  Returns ErrNotFound if the
// name does not exist.
func (s *FileStore) Update(name string, inst Instance) error {
	if err := validate(&inst); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(name)
	if i < 0 {
		return ErrNotFound
	}
	if name != inst.Name && s.index(inst.Name) >= 0 {
		return ErrDuplicate
	}
	s.instances[i] = inst
	return s.save()
}

// Remove deletes an instance by name.  Returns ErrNotFound if it does not
// exist.
func (s *FileStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(name)
	if i < 0 {
		return ErrNotFound
	}
	s.instances = slices.Delete(s.instances, i, i+1)
	return s.save()
}

// Instances returns the client configurations of all stored instances in
// order.
func (s *FileStore) Instances() ([]adguard.InstanceConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	confs := make([]adguard.InstanceConfig, 0, len(s.instances))
	for i := range s.instances {
		confs = append(confs, s.instances[i].Config())
	}
	return confs, nil
}
