package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	perrors "github.com/abgdnv/gocatalog/internal/catalog/errors"
	"github.com/go-playground/validator/v10"
)

var _ ProductStore = (*FileStore)(nil)

// FileStore implements ProductStore on top of a single JSON file holding the whole catalog.
// Every operation holds the store mutex, so validate, mutate and persist happen as one step.
type FileStore struct {
	mu       sync.Mutex
	path     string
	indent   bool
	products []Product
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithIndent selects pretty-printed (2-space) or compact JSON when saving.
func WithIndent(indent bool) Option {
	return func(s *FileStore) {
		s.indent = indent
	}
}

// NewFileStore creates a FileStore bound to path and loads the catalog from it.
// It never fails: if the file can't be loaded the store starts empty.
func NewFileStore(path string, logger *slog.Logger, opts ...Option) *FileStore {
	s := &FileStore{
		path:     path,
		indent:   true,
		products: []Product{},
		validate: validator.New(),
		logger:   logger.With("component", "store", "path", path),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Load(context.Background()); err != nil {
		s.logger.Warn("Failed to load catalog, starting with an empty one", "error", err)
	}
	return s
}

// Load reads the backing file into memory.
// The catalog is emptied first, so a failed load leaves an empty catalog behind.
func (s *FileStore) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = []Product{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("Catalog file does not exist yet")
			return nil
		}
		return fmt.Errorf("%w: failed to read %s: %w", perrors.ErrPersistence, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: file %s is empty", perrors.ErrPersistence, s.path)
	}

	var loaded []Product
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %w", perrors.ErrPersistence, s.path, err)
	}
	if loaded != nil {
		s.products = loaded
	}
	s.logger.Debug("Catalog loaded", "count", len(s.products), "next_id", s.nextID())
	return nil
}

// Save writes the whole catalog to the backing file.
func (s *FileStore) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save()
}

// AddProduct validates the candidate, assigns the next ID and appends it to the catalog.
func (s *FileStore) AddProduct(ctx context.Context, candidate Product) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validateCandidate(candidate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.products, func(p Product) bool { return p.Code == candidate.Code }) {
		return nil, fmt.Errorf("%w: %s", perrors.ErrDuplicateCode, candidate.Code)
	}

	candidate.ID = s.nextID()
	s.products = append(s.products, candidate)

	created := candidate
	if err := s.save(); err != nil {
		return &created, err
	}
	return &created, nil
}

// GetProducts returns a copy of the catalog in insertion order.
func (s *FileStore) GetProducts(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Product, len(s.products))
	copy(list, s.products)
	return list, nil
}

// GetProductByID returns the first product with the given ID.
func (s *FileStore) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, perrors.ErrProductNotFound
	}
	found := s.products[idx]
	return &found, nil
}

// UpdateProduct replaces the product with the given ID by replacement.
// The replacement keeps the original ID and is stored as-is, without validation.
func (s *FileStore) UpdateProduct(ctx context.Context, id int64, replacement Product) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, perrors.ErrProductNotFound
	}

	replacement.ID = id
	s.products[idx] = replacement

	updated := replacement
	if err := s.save(); err != nil {
		return &updated, err
	}
	return &updated, nil
}

// DeleteProduct removes the product with the given ID, keeping the order of the rest.
func (s *FileStore) DeleteProduct(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return perrors.ErrProductNotFound
	}

	s.products = slices.Delete(s.products, idx, idx+1)
	return s.save()
}

// validateCandidate checks that every caller-supplied field is set.
func (s *FileStore) validateCandidate(candidate Product) error {
	err := s.validate.Struct(candidate)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %w", perrors.ErrValidation, err)
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fieldErr.Field())
	}
	return fmt.Errorf("%w: missing %s", perrors.ErrValidation, strings.Join(fields, ", "))
}

// nextID returns one more than the highest ID in the catalog, or 1 if it is empty.
// Must be called with the mutex held.
func (s *FileStore) nextID() int64 {
	var maxID int64
	for _, p := range s.products {
		maxID = max(maxID, p.ID)
	}
	return maxID + 1
}

// indexOf returns the position of the first product with the given ID or -1.
// Must be called with the mutex held.
func (s *FileStore) indexOf(id int64) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}

// save writes the catalog to a temporary file next to the target and renames it into place.
// Must be called with the mutex held.
func (s *FileStore) save() error {
	var (
		data []byte
		err  error
	)
	if s.indent {
		data, err = json.MarshalIndent(s.products, "", "  ")
	} else {
		data, err = json.Marshal(s.products)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to encode catalog: %w", perrors.ErrPersistence, err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		s.logger.Error("Failed to save catalog", "error", err)
		return fmt.Errorf("%w: %w", perrors.ErrPersistence, err)
	}
	s.logger.Debug("Catalog saved", "count", len(s.products))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
