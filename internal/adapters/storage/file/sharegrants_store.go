package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"family-health-records/internal/domain/sharegrants"

	"gopkg.in/yaml.v3"
)

type storeConfig struct {
	path     string      // archivo YAML con los grants
	dirPerm  os.FileMode // permisos del directorio creado
	filePerm os.FileMode // permisos del archivo
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		path:     filepath.Join("data", "share_grants.yaml"),
		dirPerm:  0o755,
		filePerm: 0o600, // contiene emails de terceros
	}
}

// StoreOption configura un ShareGrantsStore.
type StoreOption func(*storeConfig)

// WithPath fija la ruta del archivo de grants.
func WithPath(path string) StoreOption {
	return func(c *storeConfig) {
		if strings.TrimSpace(path) != "" {
			c.path = path
		}
	}
}

// WithFilePermissions fija los permisos del archivo. Default 0o600.
func WithFilePermissions(perm os.FileMode) StoreOption {
	return func(c *storeConfig) {
		c.filePerm = perm
	}
}

// WithDirPermissions fija los permisos del directorio. Default 0o755.
func WithDirPermissions(perm os.FileMode) StoreOption {
	return func(c *storeConfig) {
		c.dirPerm = perm
	}
}

// ShareGrantsStore persiste los grants en un único archivo YAML.
// Mantiene el contenido en memoria y reescribe el archivo completo en cada
// mutación (temp + rename), así un crash nunca deja un grant a medias.
type ShareGrantsStore struct {
	config storeConfig

	mu   sync.RWMutex
	byID map[string]sharegrants.ShareGrant
}

type grantDocument struct {
	Version int         `yaml:"version"`
	Grants  []grantYAML `yaml:"grants"`
}

type grantYAML struct {
	ID            string           `yaml:"id"`
	OwnerFamilyID string           `yaml:"owner_family_id"`
	ScopeMemberID *string          `yaml:"scope_member_id,omitempty"`
	Channel       string           `yaml:"channel"`
	InvitedEmails []string         `yaml:"invited_emails,omitempty"`
	Reason        string           `yaml:"reason,omitempty"`
	ExpiresAt     time.Time        `yaml:"expires_at"`
	CreatedAt     time.Time        `yaml:"created_at"`
	Permissions   []permissionYAML `yaml:"permissions"`
}

type permissionYAML struct {
	ResourceType string   `yaml:"resource_type"`
	Actions      []string `yaml:"actions"`
}

// NewShareGrantsStore abre (o crea al primer write) el archivo de grants.
func NewShareGrantsStore(opts ...StoreOption) (*ShareGrantsStore, error) {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &ShareGrantsStore{
		config: cfg,
		byID:   make(map[string]sharegrants.ShareGrant),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path devuelve la ruta del archivo respaldatorio.
func (s *ShareGrantsStore) Path() string {
	return s.config.path
}

func (s *ShareGrantsStore) Create(ctx context.Context, g sharegrants.ShareGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := s.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}

	s.byID[g.ID] = g.Clone()
	if err := s.flush(); err != nil {
		delete(s.byID, g.ID)
		return err
	}
	return nil
}

func (s *ShareGrantsStore) GetByID(ctx context.Context, id string) (sharegrants.ShareGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.byID[id]
	if !ok {
		return sharegrants.ShareGrant{}, sharegrants.ErrGrantNotFound
	}
	return g.Clone(), nil
}

func (s *ShareGrantsStore) ListByFamily(ctx context.Context, familyID string) ([]sharegrants.ShareGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sharegrants.ShareGrant, 0)
	for _, g := range s.byID {
		if g.OwnerFamilyID == familyID {
			out = append(out, g.Clone())
		}
	}
	sharegrants.SortNewestFirst(out)
	return out, nil
}

func (s *ShareGrantsStore) ListByInvitedEmail(ctx context.Context, email string) ([]sharegrants.ShareGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sharegrants.ShareGrant, 0)
	for _, g := range s.byID {
		if g.Invites(email) {
			out = append(out, g.Clone())
		}
	}
	sharegrants.SortNewestFirst(out)
	return out, nil
}

func (s *ShareGrantsStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	delete(s.byID, id)
	if err := s.flush(); err != nil {
		s.byID[id] = g
		return false, err
	}
	return true, nil
}

func (s *ShareGrantsStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]sharegrants.ShareGrant)
	for id, g := range s.byID {
		if !g.ExpiresAt.After(cutoff) {
			removed[id] = g
			delete(s.byID, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := s.flush(); err != nil {
		for id, g := range removed {
			s.byID[id] = g
		}
		return 0, err
	}
	return len(removed), nil
}

func (s *ShareGrantsStore) load() error {
	data, err := os.ReadFile(s.config.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read grant store: %w", err)
	}

	var doc grantDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse grant store: %w", err)
	}

	for _, gy := range doc.Grants {
		g := fromYAML(gy)
		s.byID[g.ID] = g
	}
	return nil
}

// flush se llama con el lock de escritura tomado.
func (s *ShareGrantsStore) flush() error {
	items := make([]sharegrants.ShareGrant, 0, len(s.byID))
	for _, g := range s.byID {
		items = append(items, g)
	}
	sharegrants.SortNewestFirst(items)

	doc := grantDocument{Version: 1, Grants: make([]grantYAML, 0, len(items))}
	for _, g := range items {
		doc.Grants = append(doc.Grants, toYAML(g))
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal grants: %w", err)
	}

	dir := filepath.Dir(s.config.path)
	if err := os.MkdirAll(dir, s.config.dirPerm); err != nil {
		return fmt.Errorf("failed to create grant store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".share_grants-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp grant store: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write grant store: %w", err)
	}
	if err := tmp.Chmod(s.config.filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod grant store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close grant store: %w", err)
	}
	if err := os.Rename(tmpName, s.config.path); err != nil {
		return fmt.Errorf("failed to replace grant store: %w", err)
	}
	return nil
}

func toYAML(g sharegrants.ShareGrant) grantYAML {
	out := grantYAML{
		ID:            g.ID,
		OwnerFamilyID: g.OwnerFamilyID,
		ScopeMemberID: g.ScopeMemberID,
		Channel:       string(g.Channel),
		InvitedEmails: g.InvitedEmails,
		Reason:        g.Reason,
		ExpiresAt:     g.ExpiresAt.UTC(),
		CreatedAt:     g.CreatedAt.UTC(),
		Permissions:   make([]permissionYAML, 0, len(g.Permissions)),
	}
	for _, p := range g.Permissions {
		actions := make([]string, 0, len(p.Actions))
		for _, a := range p.Actions {
			actions = append(actions, string(a))
		}
		out.Permissions = append(out.Permissions, permissionYAML{
			ResourceType: string(p.ResourceType),
			Actions:      actions,
		})
	}
	return out
}

func fromYAML(gy grantYAML) sharegrants.ShareGrant {
	g := sharegrants.ShareGrant{
		ID:            gy.ID,
		OwnerFamilyID: gy.OwnerFamilyID,
		ScopeMemberID: gy.ScopeMemberID,
		Channel:       sharegrants.Channel(gy.Channel),
		InvitedEmails: gy.InvitedEmails,
		Reason:        gy.Reason,
		ExpiresAt:     gy.ExpiresAt,
		CreatedAt:     gy.CreatedAt,
	}
	if g.InvitedEmails == nil {
		g.InvitedEmails = []string{}
	}
	for _, py := range gy.Permissions {
		actions := make([]sharegrants.ActionType, 0, len(py.Actions))
		for _, a := range py.Actions {
			actions = append(actions, sharegrants.ActionType(a))
		}
		g.Permissions = append(g.Permissions, sharegrants.PermissionEntry{
			ResourceType: sharegrants.ResourceType(py.ResourceType),
			Actions:      actions,
		})
	}
	return g
}
