package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Flag is a boolean column attribute. It is written as 0/1 and accepts
// booleans, numbers and numeric strings on input.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(string(b), `"`))
	switch s {
	case "true", "1", "on", "yes":
		*f = true
	case "false", "0", "off", "no", "", "null":
		*f = false
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid flag value %s", b)
		}
		*f = n != 0
	}
	return nil
}

// RefID is an identifier supplied by a client. Anything that is not a
// positive integer (null, temporary client-side ids such as "tmp-3")
// decodes to zero, meaning the entity is new.
type RefID int64

func (r *RefID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		*r = 0
		return nil
	}
	*r = RefID(id)
	return nil
}

func (r RefID) Int64() int64 {
	return int64(r)
}

// TargetID is a client-supplied id that must name an existing record.
// Decoding never fails; Int64 reports a missing or malformed value so the
// caller can reject it.
type TargetID struct {
	value int64
	raw   string
	set   bool
}

func NewTargetID(id int64) TargetID {
	return TargetID{value: id, raw: strconv.FormatInt(id, 10), set: true}
}

func (t *TargetID) UnmarshalJSON(b []byte) error {
	*t = TargetID{raw: string(b), set: true, value: -1}

	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && id >= 0 {
		t.value = id
	}
	return nil
}

func (t TargetID) MarshalJSON() ([]byte, error) {
	if !t.set || t.value < 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.value, 10)), nil
}

// Int64 returns the id, failing when it was absent or is not a
// non-negative integer.
func (t TargetID) Int64() (int64, error) {
	if !t.set {
		return 0, errors.New("id is required")
	}
	if t.value < 0 {
		return 0, fmt.Errorf("id %s is not a non-negative integer", t.raw)
	}
	return t.value, nil
}
