package suite

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports every problem in the suite, joined into one error.
func (s *Suite) Validate() error {
	var errs []error
	seen := make(map[string]int)

	for i, tc := range s.Cases {
		pos := fmt.Sprintf("case %d", i+1)
		if tc.Name != "" {
			pos = fmt.Sprintf("case %d (%s)", i+1, tc.Name)
		}

		if strings.TrimSpace(tc.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is empty", pos))
		} else if first, dup := seen[tc.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate name, first used by case %d", pos, first))
		} else {
			seen[tc.Name] = i + 1
		}

		if strings.TrimSpace(tc.BusinessName) == "" {
			errs = append(errs, fmt.Errorf("%s: businessName is empty", pos))
		}

		if tc.Image != "" {
			mimeType, _, err := ParseDataURI(tc.Image)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: image: %w", pos, err))
			} else if !strings.HasPrefix(mimeType, "image/") {
				errs = append(errs, fmt.Errorf("%s: image has MIME type %q", pos, mimeType))
			}
		}

		switch tc.Layout {
		case "", LayoutNested, LayoutFlat:
		default:
			errs = append(errs, fmt.Errorf("%s: unknown layout %q (nested or flat)", pos, tc.Layout))
		}
	}

	return errors.Join(errs...)
}
