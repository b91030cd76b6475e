package suite

import (
	"fmt"
	"sort"
	"strings"
)

// SampleImage is a 1x1 JPEG used by the local suite.
const SampleImage = "data:image/jpeg;base64,/9j/4AAQSkZJRgABAQAAAQABAAD/2wBDAAYEBQYFBAYGBQYHBwYIChAKCgkJChQODwwQFxQYGBcUFhYaHSUfGhsjHBYWICwgIyYnKSopGR8tMC0oMCUoKSj/2wBDAQcHBwoIChMKChMoGhYaKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCgoKCj/wAARCAABAAEDASIAAhEBAxEB/8QAFQABAQAAAAAAAAAAAAAAAAAAAAv/xAAUEAEAAAAAAAAAAAAAAAAAAAAA/8QAFQEBAQAAAAAAAAAAAAAAAAAAAAX/xAAUEQEAAAAAAAAAAAAAAAAAAAAA/9oADAMBAAIRAxEAPwCdABmX/9k="

func boolPtr(b bool) *bool {
	return &b
}

var builtins = map[string]func() *Suite{
	"production": productionSuite,
	"local":      localSuite,
	"smoke":      smokeSuite,
}

// BuiltinNames lists the built-in suites in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a fresh copy of the named built-in suite.
func Builtin(name string) (*Suite, bool) {
	fn, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Resolve returns the built-in suite called name, or loads name as a file.
func Resolve(name string) (*Suite, error) {
	if s, ok := Builtin(name); ok {
		return s, nil
	}
	if !IsSuiteFile(name) {
		return nil, fmt.Errorf("unknown suite %q (built-in: %s; or a .yaml, .json or .xlsx file)",
			name, strings.Join(BuiltinNames(), ", "))
	}
	return LoadFile(name)
}

// productionSuite checks classification of text-only requests.
func productionSuite() *Suite {
	return &Suite{
		Name:        "production",
		Description: "business name comparison without image",
		Cases: []TestCase{
			{Name: "Retail Store Test", BusinessName: "Toko Kelontong Bahagia", ExpectedType: "retail"},
			{Name: "Restaurant Test", BusinessName: "Warung Makan Sederhana", ExpectedType: "restaurant"},
			{Name: "Shoe Store Test", BusinessName: "Toko Sepatu Sport", ExpectedType: "shoe_store"},
		},
	}
}

// localSuite compares business names against an attached image.
func localSuite() *Suite {
	s := &Suite{
		Name:        "local",
		Description: "business name comparison with image",
		Defaults: Defaults{
			Image:         SampleImage,
			ImageSlot:     DefaultImageSlot,
			Layout:        LayoutNested,
			RequestID:     "test_req_{{index}}",
			ClientVersion: "1.0.0",
		},
		Cases: []TestCase{
			{Name: "Exact Match", BusinessName: "Warung Makan Sederhana", ExpectedMatch: boolPtr(true)},
			{Name: "Partial Match", BusinessName: "Warung Sederhana", ExpectedMatch: boolPtr(true)},
			{Name: "Different Business", BusinessName: "Toko Elektronik Modern", ExpectedMatch: boolPtr(false)},
			{Name: "Similar Keywords", BusinessName: "Warung Makan Bahagia", ExpectedMatch: boolPtr(true)},
		},
	}
	s.applyDefaults()
	return s
}

func smokeSuite() *Suite {
	return &Suite{
		Name:        "smoke",
		Description: "single text-only request",
		Cases: []TestCase{
			{Name: "Smoke Test", BusinessName: "Warung Makan Sederhana"},
		},
	}
}
