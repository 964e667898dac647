package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNameLength bounds table and field names, in characters.
const maxNameLength = 255

// validateName accepts any display name that is not blank, fits
// maxNameLength and carries no control characters. Quoting names for SQL
// is left to whoever renders DDL.
func validateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("%s name is required", kind)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return invalid("%s name is longer than %d characters", kind, maxNameLength)
	}
	if !utf8.ValidString(name) || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return invalid("%s name %q contains invalid characters", kind, name)
	}
	return nil
}

func validateField(f *FieldPayload) error {
	if err := validateName(KindField, f.Name); err != nil {
		return err
	}
	if f.Length != nil && *f.Length < 0 {
		return invalid("field %q has a negative length", f.Name)
	}
	return nil
}

func validateReconcileRequest(req *ReconcileRequest) error {
	if _, err := req.ID.Int64(); err != nil {
		return invalid("database %v", err)
	}

	for i := range req.Tables {
		t := &req.Tables[i]
		if err := validateName(KindTable, t.Name); err != nil {
			return &EntityError{Kind: KindTable, Index: i, Err: err}
		}
		for j := range t.Fields {
			if err := validateField(&t.Fields[j]); err != nil {
				return &EntityError{Kind: KindField, Index: j, TableIndex: i, Err: err}
			}
		}
	}

	for i, l := range req.Links {
		for _, ref := range []struct{ attr, value string }{
			{"sourceTable", l.SourceTable},
			{"sourceField", l.SourceField},
			{"targetTable", l.TargetTable},
			{"targetField", l.TargetField},
		} {
			if strings.TrimSpace(ref.value) == "" {
				return &EntityError{Kind: KindLink, Index: i, Err: invalid("%s is required", ref.attr)}
			}
		}
	}

	return nil
}
