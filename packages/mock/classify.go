package mock

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
)

// MatchThreshold is the lowest score reported as a match.
const MatchThreshold = 0.5

type classifyRequest struct {
	BusinessName string            `json:"businessName"`
	Images       map[string]string `json:"images"`
	Image        string            `json:"image"`
	Metadata     struct {
		RequestID     string `json:"requestId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"metadata"`
}

// imageCount validates attached images and returns how many there are.
func (r *classifyRequest) imageCount() (int, error) {
	n := 0
	check := func(slot, uri string) error {
		if _, _, err := suite.ParseDataURI(uri); err != nil {
			return fmt.Errorf("invalid image %s: %v", slot, err)
		}
		n++
		return nil
	}
	for slot, uri := range r.Images {
		if err := check(slot, uri); err != nil {
			return 0, err
		}
	}
	if r.Image != "" {
		if err := check("image", r.Image); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Comparison is the body of the comparison field.
type Comparison struct {
	IsMatch     bool    `json:"isMatch"`
	MatchScore  float64 `json:"matchScore"`
	MatchReason string  `json:"matchReason"`
}

var typeKeywords = []struct {
	businessType string
	keywords     []string
}{
	{"shoe_store", []string{"sepatu", "shoe", "shoes"}},
	{"restaurant", []string{"warung", "makan", "restoran", "resto", "cafe", "kopi"}},
}

func classifyBusiness(name string) string {
	ws := words(name)
	for _, group := range typeKeywords {
		for _, kw := range group.keywords {
			if _, ok := ws[kw]; ok {
				return group.businessType
			}
		}
	}
	return "retail"
}

// compareNames scores name by the share of reference words it contains.
func compareNames(name, reference string) Comparison {
	ref := words(reference)
	got := words(name)
	shared := 0
	for w := range ref {
		if _, ok := got[w]; ok {
			shared++
		}
	}

	score := 0.0
	if len(ref) > 0 {
		score = math.Round(float64(shared)/float64(len(ref))*100) / 100
	}
	reason := "no keyword overlap"
	if shared > 0 {
		reason = "keyword overlap"
	}
	return Comparison{
		IsMatch:     score >= MatchThreshold,
		MatchScore:  score,
		MatchReason: reason,
	}
}

func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[f] = struct{}{}
	}
	return out
}
