package suite

import (
	"strings"
)

// Layout selects how an attached image is placed in the request body.
type Layout string

const (
	// LayoutNested sends {"images": {"<slot>": "<data uri>"}}.
	LayoutNested Layout = "nested"
	// LayoutFlat sends {"image": "<data uri>"}.
	LayoutFlat Layout = "flat"
)

// DefaultImageSlot is the key used under "images" when a case names none.
const DefaultImageSlot = "image1"

// TestCase is one classify request and what to expect from it.
type TestCase struct {
	Name          string   `yaml:"name" json:"name"`
	BusinessName  string   `yaml:"businessName" json:"businessName"`
	Image         string   `yaml:"image,omitempty" json:"image,omitempty"`
	ImageFile     string   `yaml:"imageFile,omitempty" json:"imageFile,omitempty"`
	ImageSlot     string   `yaml:"imageSlot,omitempty" json:"imageSlot,omitempty"`
	Layout        Layout   `yaml:"layout,omitempty" json:"layout,omitempty"`
	ExpectedType  string   `yaml:"expectedType,omitempty" json:"expectedType,omitempty"`
	ExpectedMatch *bool    `yaml:"expectedMatch,omitempty" json:"expectedMatch,omitempty"`
	RequestID     string   `yaml:"requestId,omitempty" json:"requestId,omitempty"`
	ClientVersion string   `yaml:"clientVersion,omitempty" json:"clientVersion,omitempty"`
	Tags          []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Skip          string   `yaml:"skip,omitempty" json:"skip,omitempty"`
}

func (tc *TestCase) HasImage() bool {
	return tc.Image != ""
}

func (tc *TestCase) HasExpectations() bool {
	return tc.ExpectedType != "" || tc.ExpectedMatch != nil
}

// Slot returns the image slot, defaulting to DefaultImageSlot.
func (tc *TestCase) Slot() string {
	if tc.ImageSlot == "" {
		return DefaultImageSlot
	}
	return tc.ImageSlot
}

// EffectiveLayout returns the layout, defaulting to LayoutNested.
func (tc *TestCase) EffectiveLayout() Layout {
	if tc.Layout == "" {
		return LayoutNested
	}
	return tc.Layout
}

func (tc *TestCase) HasTag(tag string) bool {
	for _, t := range tc.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Defaults are copied into every case that leaves the field empty.
type Defaults struct {
	ImageFile     string   `yaml:"imageFile,omitempty" json:"imageFile,omitempty"`
	Image         string   `yaml:"image,omitempty" json:"image,omitempty"`
	ImageSlot     string   `yaml:"imageSlot,omitempty" json:"imageSlot,omitempty"`
	Layout        Layout   `yaml:"layout,omitempty" json:"layout,omitempty"`
	RequestID     string   `yaml:"requestId,omitempty" json:"requestId,omitempty"`
	ClientVersion string   `yaml:"clientVersion,omitempty" json:"clientVersion,omitempty"`
	Tags          []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Suite is an ordered list of test cases.
type Suite struct {
	Name        string     `yaml:"name,omitempty" json:"name,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Schema      string     `yaml:"schema,omitempty" json:"schema,omitempty"`
	Defaults    Defaults   `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Cases       []TestCase `yaml:"cases" json:"cases"`

	// Path is the file the suite was loaded from; empty for built-in suites.
	Path string `yaml:"-" json:"-"`
}

// Len returns the number of cases.
func (s *Suite) Len() int {
	return len(s.Cases)
}

func (s *Suite) applyDefaults() {
	d := s.Defaults
	for i := range s.Cases {
		tc := &s.Cases[i]
		if tc.Image == "" && tc.ImageFile == "" {
			tc.Image = d.Image
			tc.ImageFile = d.ImageFile
		}
		if tc.ImageSlot == "" {
			tc.ImageSlot = d.ImageSlot
		}
		if tc.Layout == "" {
			tc.Layout = d.Layout
		}
		if tc.RequestID == "" {
			tc.RequestID = d.RequestID
		}
		if tc.ClientVersion == "" {
			tc.ClientVersion = d.ClientVersion
		}
		for _, tag := range d.Tags {
			if !tc.HasTag(tag) {
				tc.Tags = append(tc.Tags, tag)
			}
		}
	}
}
