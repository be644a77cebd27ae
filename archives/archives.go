// Package archives implements the keyed read/write contract used to persist
// graph nodes: an Archiver collects named fields for one object, an
// Unarchiver reads them back. Field values are encoded as JSON.
//
// The contract is symmetric: whatever set of field names a node writes, it
// must read back under the same names. A required field missing on read is
// data corruption and fails the load, it is never defaulted.
package archives

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Archiver collects the named fields of one object being archived.
//
// Write never fails in place; the first error (duplicate field, value that
// cannot be encoded) is sticky and surfaces when Fields is called to
// assemble the document.
type Archiver struct {
	fields map[string]json.RawMessage
	err    error
}

// NewArchiver returns an empty Archiver.
func NewArchiver() *Archiver {
	return &Archiver{fields: make(map[string]json.RawMessage)}
}

// Write encodes value under the given field name.
func (a *Archiver) Write(name string, value any) {
	if a.err != nil {
		return
	}
	if _, found := a.fields[name]; found {
		a.err = errors.Errorf("field %q archived twice", name)
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		a.err = errors.Wrapf(err, "failed to encode field %q", name)
		return
	}
	a.fields[name] = encoded
}

// Err returns the first error recorded by Write, if any.
func (a *Archiver) Err() error { return a.err }

// Fields returns the encoded fields, or the first error recorded by Write.
func (a *Archiver) Fields() (map[string]json.RawMessage, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.fields, nil
}

// Unarchiver reads back the named fields of one archived object.
type Unarchiver struct {
	fields map[string]json.RawMessage
}

// NewUnarchiver wraps the encoded fields of one archived object.
func NewUnarchiver(fields map[string]json.RawMessage) *Unarchiver {
	return &Unarchiver{fields: fields}
}

// Read decodes the required field name into out.
// A missing field is an error: the archive is treated as corrupted.
func (u *Unarchiver) Read(name string, out any) error {
	raw, found := u.fields[name]
	if !found {
		return errors.Errorf("required field %q missing from archive", name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "failed to decode field %q", name)
	}
	return nil
}

// Has reports whether the field name is present.
func (u *Unarchiver) Has(name string) bool {
	_, found := u.fields[name]
	return found
}
