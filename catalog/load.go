package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seed []byte

// Default returns the catalog shipped with the binary.
func Default() (Catalog, error) {
	return Load(bytes.NewReader(seed))
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML catalog and checks that slugs are unique per kind.
func Load(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) validate() error {
	seen := make(map[string]struct{})
	check := func(kind, slug string) error {
		if slug == "" {
			return fmt.Errorf("catalog: %s without slug", kind)
		}
		key := kind + "/" + slug
		if _, dup := seen[key]; dup {
			return fmt.Errorf("catalog: duplicate %s %q", kind, slug)
		}
		seen[key] = struct{}{}
		return nil
	}
	for _, ch := range c.Challenges {
		if err := check("challenge", ch.Slug); err != nil {
			return err
		}
	}
	for _, p := range c.Projects {
		if err := check("project", p.Slug); err != nil {
			return err
		}
	}
	for _, t := range c.Tracks {
		if err := check("track", t.Slug); err != nil {
			return err
		}
	}
	for _, l := range c.Lessons {
		if err := check("lesson", l.Slug); err != nil {
			return err
		}
	}
	for _, r := range c.Roadmaps {
		if err := check("roadmap", r.ID); err != nil {
			return err
		}
	}
	return nil
}
