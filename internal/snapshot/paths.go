// Package snapshot exports redacted, read-only JSON snapshots of entities to
// a fixed directory tree:
//
//	<root>/json/user/<uuid>/about.json
//	<root>/json/site/<uuid>/about.json
//	<root>/json/site/<uuid>/{archive,category,page,post,tag}/
//
// Paths are derived only from the entity kind and UUID, so writes for
// different entities never touch the same files. Writes for the same UUID are
// not ordered here; callers serialize them.
package snapshot

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jrigden/muckamuck/internal/model"
)

const (
	jsonDirName  = "json"
	snapshotFile = "about.json"
)

// SiteSubdirs is the fixed set of directories provisioned under every site.
var SiteSubdirs = []string{"archive", "category", "page", "post", "tag"}

// Resolver maps entities to canonical paths under an output root.
// It holds no mutable state.
type Resolver struct {
	root string
}

// NewResolver returns a Resolver for root. The root is made absolute once so
// later changes of working directory do not move the tree.
func NewResolver(root string) (*Resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("output root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output root: %w", err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute output root.
func (r *Resolver) Root() string {
	return r.root
}

// KindDir returns <root>/json/<kind>.
func (r *Resolver) KindDir(kind model.Kind) (string, error) {
	if !kind.IsValid() {
		return "", encodingErrorf("unknown entity kind %q", kind)
	}
	return filepath.Join(r.root, jsonDirName, string(kind)), nil
}

// Dir returns <root>/json/<kind>/<uuid>.
func (r *Resolver) Dir(kind model.Kind, uuid string) (string, error) {
	base, err := r.KindDir(kind)
	if err != nil {
		return "", err
	}
	if err := checkUUID(uuid); err != nil {
		return "", err
	}
	return filepath.Join(base, uuid), nil
}

// AboutPath returns <root>/json/<kind>/<uuid>/about.json.
func (r *Resolver) AboutPath(kind model.Kind, uuid string) (string, error) {
	dir, err := r.Dir(kind, uuid)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, snapshotFile), nil
}

// SubdirPath returns one of the fixed subdirectories of an entity directory.
func (r *Resolver) SubdirPath(kind model.Kind, uuid, name string) (string, error) {
	if !slices.Contains(Subdirs(kind), name) {
		return "", encodingErrorf("%s has no subdirectory %q", kind, name)
	}
	dir, err := r.Dir(kind, uuid)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Subdirs returns the fixed subdirectories provisioned for kind.
func Subdirs(kind model.Kind) []string {
	if kind == model.KindSite {
		return SiteSubdirs
	}
	return nil
}

// checkUUID rejects values that are not a single path element. The format
// itself belongs to the generator.
func checkUUID(uuid string) error {
	switch {
	case uuid == "":
		return encodingErrorf("uuid is required")
	case uuid == "." || uuid == "..":
		return encodingErrorf("uuid %q is not a valid path element", uuid)
	case strings.ContainsAny(uuid, `/\`) || strings.ContainsRune(uuid, filepath.Separator):
		return encodingErrorf("uuid %q contains a path separator", uuid)
	}
	return nil
}
