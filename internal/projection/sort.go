package projection

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"mealhub/pkg/models"
)

type Field string

const (
	FieldName     Field = "name"
	FieldID       Field = "id"
	FieldCategory Field = "category"
	FieldRegion   Field = "region"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec orders meals by one field.
type SortSpec struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort is name ascending.
var DefaultSort = SortSpec{Field: FieldName, Direction: Asc}

// ParseSortSpec accepts the query forms used by the HTTP layer. Empty values
// fall back to DefaultSort.
func ParseSortSpec(field, direction string) (SortSpec, error) {
	spec := DefaultSort

	switch f := Field(strings.ToLower(strings.TrimSpace(field))); f {
	case "":
	case FieldName, FieldID, FieldCategory, FieldRegion:
		spec.Field = f
	default:
		return SortSpec{}, fmt.Errorf("unknown sort field %q", field)
	}

	switch d := strings.ToLower(strings.TrimSpace(direction)); d {
	case "":
	case "asc", "ascending":
		spec.Direction = Asc
	case "desc", "descending":
		spec.Direction = Desc
	default:
		return SortSpec{}, fmt.Errorf("unknown sort direction %q", direction)
	}
	return spec, nil
}

func (s SortSpec) value(m models.Meal) string {
	switch s.Field {
	case FieldID:
		return m.ID
	case FieldCategory:
		return m.Category
	case FieldRegion:
		return m.Region
	default:
		return m.Name
	}
}

// newCollator compares strings ignoring case, accents and width.
// A Collator keeps internal buffers, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.Loose)
}

// CompareNames compares two strings the way sorting does.
func CompareNames(a, b string) int {
	return newCollator().CompareString(a, b)
}

// Sort returns a stably sorted copy of meals. The input is not modified.
func Sort(meals []models.Meal, spec SortSpec) []models.Meal {
	out := slices.Clone(meals)
	col := newCollator()

	slices.SortStableFunc(out, func(a, b models.Meal) int {
		if spec.Direction == Desc {
			return col.CompareString(spec.value(b), spec.value(a))
		}
		return col.CompareString(spec.value(a), spec.value(b))
	})
	return out
}
