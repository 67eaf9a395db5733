package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/soltixdb/xmrchart/internal/analytics"
	"github.com/soltixdb/xmrchart/internal/config"
	"github.com/soltixdb/xmrchart/internal/logging"
)

var (
	// ErrUnknownSource is returned when a source name is not configured
	ErrUnknownSource = errors.New("unknown source")

	// ErrDuplicateSource is returned when two sources share a name
	ErrDuplicateSource = errors.New("duplicate source")
)

// Source describes one file-backed metric.
type Source struct {
	Name       string
	Title      string
	Path       string
	DateField  string
	ValueField string
	Scale      float64
}

// CSVOptions returns the loader options for the source
func (s Source) CSVOptions() CSVOptions {
	return CSVOptions{
		DateField:  s.DateField,
		ValueField: s.ValueField,
		Scale:      s.Scale,
	}
}

// Catalog resolves configured sources by name. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	sources map[string]Source
	order   []string
}

// NewCatalog creates a catalog. Names must be unique and non-empty.
func NewCatalog(sources []Source) (*Catalog, error) {
	c := &Catalog{
		sources: make(map[string]Source, len(sources)),
		order:   make([]string, 0, len(sources)),
	}
	for i, s := range sources {
		if s.Name == "" {
			return nil, fmt.Errorf("source %d: name is required", i)
		}
		if s.Path == "" {
			return nil, fmt.Errorf("source %q: path is required", s.Name)
		}
		if _, exists := c.sources[s.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSource, s.Name)
		}
		if s.Title == "" {
			s.Title = s.Name
		}
		c.sources[s.Name] = s
		c.order = append(c.order, s.Name)
	}
	return c, nil
}

// List returns the sources in configuration order
func (c *Catalog) List() []Source {
	out := make([]Source, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.sources[name])
	}
	return out
}

// Get returns the named source
func (c *Catalog) Get(name string) (Source, error) {
	s, ok := c.sources[name]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return s, nil
}

// Load reads the named source from disk
func (c *Catalog) Load(ctx context.Context, name string) (analytics.TimeSeriesData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := c.Get(name)
	if err != nil {
		return nil, err
	}

	data, err := LoadCSV(s.Path, s.CSVOptions())
	if err != nil {
		logging.WarnCtx(ctx, "Source read failed", "source", name, "path", s.Path, "error", err)
		return nil, fmt.Errorf("open source %q: %w", name, err)
	}
	logging.DebugCtx(ctx, "Source loaded", "source", name, "points", len(data))
	return data, nil
}

// NewCatalogFromConfig creates a catalog from configured sources
func NewCatalogFromConfig(sources []config.SourceConfig) (*Catalog, error) {
	list := make([]Source, len(sources))
	for i, s := range sources {
		list[i] = Source{
			Name:       s.Name,
			Title:      s.Title,
			Path:       s.Path,
			DateField:  s.DateField,
			ValueField: s.ValueField,
			Scale:      s.Scale,
		}
	}
	return NewCatalog(list)
}
