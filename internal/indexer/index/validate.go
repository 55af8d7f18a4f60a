package index

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
)

const (
	maxKeyLength       = 255
	maxFieldNameLength = 128
	maxFieldBytes      = 1 << 20
)

// ValidationError holds one message per offending part of a document.
// errors.Is matches apperrors.ErrInvalidArgument.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return "invalid document: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidArgument
}

// ValidateDocument checks a corpus document before it is indexed.
func ValidateDocument(doc Document) error {
	errs := make(map[string]string)
	key := strings.TrimSpace(doc.Key)
	switch {
	case key == "":
		errs["key"] = "key is required"
	case len(key) > maxKeyLength:
		errs["key"] = fmt.Sprintf("key must be at most %d bytes", maxKeyLength)
	}
	for name, text := range doc.Fields {
		label := "fields." + name
		switch {
		case strings.TrimSpace(name) == "":
			errs["fields"] = "field names must not be blank"
		case len(name) > maxFieldNameLength:
			errs[label] = fmt.Sprintf("field name must be at most %d bytes", maxFieldNameLength)
		case len(text) > maxFieldBytes:
			errs[label] = fmt.Sprintf("text must be at most %d bytes", maxFieldBytes)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
