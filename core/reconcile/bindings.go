package reconcile

import (
	"fmt"
	"strings"
)

// ParseBinding parses a binding declaration of the form
// model:table:id_column:file_column[:bucket], the format the CLI
// accepts for its --binding flag.
func ParseBinding(spec string) (FieldBinding, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 4 || len(parts) > 5 {
		return FieldBinding{}, fmt.Errorf("invalid binding %q: want model:table:id_column:file_column[:bucket]", spec)
	}
	for _, p := range parts[:4] {
		if p == "" {
			return FieldBinding{}, fmt.Errorf("invalid binding %q: empty segment", spec)
		}
	}
	b := FieldBinding{
		Model:    parts[0],
		Table:    parts[1],
		IDColumn: parts[2],
		Column:   parts[3],
	}
	if len(parts) == 5 {
		b.Bucket = parts[4]
	}
	return b, nil
}

// ParseBindings parses a list of binding declarations, failing on the
// first invalid one.
func ParseBindings(specs []string) ([]FieldBinding, error) {
	bindings := make([]FieldBinding, 0, len(specs))
	for _, spec := range specs {
		b, err := ParseBinding(spec)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}
