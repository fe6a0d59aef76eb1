package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Translation ids repeat once per locale, so references to them can never be
// backed by a unique column.
var translationSkip = regexp.MustCompile(`^Field 'id' under model '\w*Translation' must have a unique=True constraint\.`)

type modelError struct {
	Context string
	Message string
}

// ErrorCollection gathers model check failures, dropping the ones caused by translation tables.
type ErrorCollection struct {
	errs []modelError
}

func (c *ErrorCollection) Add(context, message string) {
	if translationSkip.MatchString(message) {
		return
	}
	c.errs = append(c.errs, modelError{Context: context, Message: message})
}

func (c *ErrorCollection) Len() int {
	return len(c.errs)
}

func (c *ErrorCollection) Messages() []string {
	out := make([]string, 0, len(c.errs))
	for _, e := range c.errs {
		out = append(out, fmt.Sprintf("%s: %s", e.Context, e.Message))
	}
	return out
}

func (c *ErrorCollection) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(c.errs))
	for _, m := range c.Messages() {
		errs = append(errs, errors.New(m))
	}
	return errors.Join(errs...)
}

// CheckModels verifies that every field tagged `ref:<table>.<column>` points at
// a known model whose column is unique.
func CheckModels(db *gorm.DB, values ...interface{}) *ErrorCollection {
	collection := &ErrorCollection{}
	cache := &sync.Map{}

	byTable := make(map[string]*schema.Schema, len(values))
	parsed := make([]*schema.Schema, 0, len(values))
	for _, v := range values {
		s, err := schema.Parse(v, cache, db.NamingStrategy)
		if err != nil {
			collection.Add(fmt.Sprintf("%T", v), err.Error())
			continue
		}
		byTable[s.Table] = s
		parsed = append(parsed, s)
	}

	for _, s := range parsed {
		for _, field := range s.Fields {
			ref, ok := field.TagSettings["REF"]
			if !ok {
				continue
			}
			table, column, found := strings.Cut(ref, ".")
			if !found {
				collection.Add(s.Name, fmt.Sprintf("Field '%s' has an invalid ref %q.", field.DBName, ref))
				continue
			}
			target, ok := byTable[table]
			if !ok {
				collection.Add(s.Name, fmt.Sprintf("Field '%s' references unknown table '%s'.", field.DBName, table))
				continue
			}
			targetField := target.LookUpField(column)
			if targetField == nil {
				collection.Add(s.Name, fmt.Sprintf("Field '%s' under model '%s' does not exist.", column, target.Name))
				continue
			}
			if !isUnique(target, targetField) {
				collection.Add(s.Name, fmt.Sprintf("Field '%s' under model '%s' must have a unique=True constraint.", column, target.Name))
			}
		}
	}
	return collection
}

func isUnique(s *schema.Schema, f *schema.Field) bool {
	if f.Unique {
		return true
	}
	return f.PrimaryKey && len(s.PrimaryFields) == 1
}
