package store

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// TemplateNotFound is returned for an unknown template id/version.
var TemplateNotFound = errors.New("template not found")

// TemplateCache holds loaded form templates keyed by id and version.
// Templates are immutable once cached; Refresh swaps the whole set.
type TemplateCache struct {
	// Loader supplies the full template set on Refresh.
	// Typically template.LoadDir over a templates directory.
	Loader func() ([]*template.FormTemplate, error)

	Debug bool

	mu     sync.RWMutex
	byKey  map[string]*template.FormTemplate
	latest map[string]*template.FormTemplate
}

// NewTemplateCache makes an empty cache with the given loader.
func NewTemplateCache(loader func() ([]*template.FormTemplate, error)) *TemplateCache {
	return &TemplateCache{
		Loader: loader,
		byKey:  map[string]*template.FormTemplate{},
		latest: map[string]*template.FormTemplate{},
	}
}

func key(id, version string) string {
	return id + "\x00" + version
}

// Get returns the template with the given id and version.  An empty
// version means the most recently loaded revision.
func (c *TemplateCache) Get(ctx context.Context, id, version string) (*template.FormTemplate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if version == "" {
		if t, have := c.latest[id]; have {
			return t, nil
		}
		return nil, TemplateNotFound
	}
	if t, have := c.byKey[key(id, version)]; have {
		return t, nil
	}
	return nil, TemplateNotFound
}

// Put adds one template to the cache.
func (c *TemplateCache) Put(ctx context.Context, t *template.FormTemplate) error {
	if t == nil || t.ID == "" {
		return template.ErrNoTemplateID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[key(t.ID, t.Version)] = t
	c.latest[t.ID] = t
	return nil
}

// Refresh reloads the whole template set via the Loader.  On a loader
// error the previous set stays in place.
func (c *TemplateCache) Refresh(ctx context.Context) error {
	if c.Loader == nil {
		return errors.New("no template loader")
	}
	ts, err := c.Loader()
	if err != nil {
		return err
	}

	byKey := make(map[string]*template.FormTemplate, len(ts))
	latest := make(map[string]*template.FormTemplate, len(ts))
	for _, t := range ts {
		byKey[key(t.ID, t.Version)] = t
		latest[t.ID] = t
	}

	c.mu.Lock()
	c.byKey = byKey
	c.latest = latest
	c.mu.Unlock()

	if c.Debug {
		log.Printf("store.TemplateCache refreshed: %d templates", len(ts))
	}
	return nil
}

// IDs returns the cached template ids.
func (c *TemplateCache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	acc := make([]string, 0, len(c.latest))
	for id := range c.latest {
		acc = append(acc, id)
	}
	return acc
}
