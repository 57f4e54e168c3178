// Package yamlfile reads a denomination catalog from a YAML document.
//
// The expected layout is:
//
//	denominations:
//	  - id: krw_10000
//	    value: 10000
//	    category: banknote
//	    bundle_size: 10
//	    label: "₩10,000"
//	    short_label: "1만"
//	    color: krw-10000
//	    image_url: https://example.com/10000.png
package yamlfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"cashcount/internal/core"
)

type document struct {
	Denominations []entry `yaml:"denominations"`
}

type entry struct {
	ID         string `yaml:"id"`
	Value      int64  `yaml:"value"`
	Category   string `yaml:"category"`
	BundleSize int    `yaml:"bundle_size"`
	Label      string `yaml:"label"`
	ShortLabel string `yaml:"short_label"`
	Color      string `yaml:"color"`
	ImageURL   string `yaml:"image_url"`
}

// Source loads the catalog from a file path on every Load call.
type Source struct {
	path string
}

func New(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Load(_ context.Context) ([]core.Denomination, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	denoms, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return denoms, nil
}

// Parse decodes a catalog document. Unknown keys are rejected so typos in
// field names do not silently drop bundle sizes.
func Parse(r io.Reader) ([]core.Denomination, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, core.ErrEmptyCatalog
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	out := make([]core.Denomination, 0, len(doc.Denominations))
	for i, e := range doc.Denominations {
		cat, err := core.ParseCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("denomination %d (%s): %w", i, e.ID, err)
		}
		label := e.Label
		if label == "" {
			label = e.ID
		}
		bundle := e.BundleSize
		if bundle < 0 {
			bundle = 0
		}
		out = append(out, core.Denomination{
			ID:         e.ID,
			Value:      e.Value,
			Category:   cat,
			BundleSize: bundle,
			Label:      label,
			ShortLabel: e.ShortLabel,
			Color:      e.Color,
			ImageURL:   e.ImageURL,
		})
	}
	return out, nil
}
