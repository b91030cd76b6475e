package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// IsSuiteFile reports whether path has a suite file extension.
func IsSuiteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".xlsx":
		return true
	}
	return false
}

// LoadFile reads a suite from a YAML, JSON or XLSX file. Image files are read
// into data URIs relative to the suite file's directory.
func LoadFile(path string) (*Suite, error) {
	var (
		s   *Suite
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		s, err = loadYAML(path)
	case ".xlsx":
		s, err = loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported suite file %s", path)
	}
	if err != nil {
		return nil, err
	}

	s.Path = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.Schema != "" && !filepath.IsAbs(s.Schema) {
		s.Schema = filepath.Join(filepath.Dir(path), s.Schema)
	}

	s.applyDefaults()
	if err := s.loadImages(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return s, nil
}

// loadYAML accepts a suite document or a bare list of cases. JSON is
// valid YAML, so both go through the same decoder.
func loadYAML(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing suite %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return &Suite{}, nil
	}

	root := doc.Content[0]
	s := &Suite{}
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&s.Cases)
	case yaml.MappingNode:
		err = root.Decode(s)
	default:
		err = fmt.Errorf("line %d: expected a mapping or a list of cases", root.Line)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing suite %s: %w", path, err)
	}
	return s, nil
}

func (s *Suite) loadImages(dir string) error {
	cache := make(map[string]string)
	for i := range s.Cases {
		tc := &s.Cases[i]
		if tc.Image != "" || tc.ImageFile == "" {
			continue
		}
		path := tc.ImageFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if uri, ok := cache[path]; ok {
			tc.Image = uri
			continue
		}
		uri, err := DataURI(path)
		if err != nil {
			return fmt.Errorf("case %q: %w", tc.Name, err)
		}
		cache[path] = uri
		tc.Image = uri
	}
	return nil
}

// Save writes the suite as YAML. Image data loaded from files is not written
// back; the imageFile reference is kept instead.
func (s *Suite) Save(path string) error {
	out := *s
	out.Cases = make([]TestCase, len(s.Cases))
	for i, tc := range s.Cases {
		if tc.ImageFile != "" {
			tc.Image = ""
		}
		out.Cases[i] = tc
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
