package org

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
)

// Format identifies an employee file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the encoding from a file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// document accepts the shapes an employee file can take: a bare list of
// records, an object with an "employees" list, or a single nested tree.
type document struct {
	Employees []*Employee `json:"employees" yaml:"employees"`
	Root      *Employee   `json:"root" yaml:"root"`
}

// Decode reads employee records from r.
//
// The input may be a flat list of records linked by managerId, an object
// {"employees": [...]}, an object {"root": {...}}, or a single nested
// employee with children. Nested input is flattened, and each child's
// ManagerID is set from its position in the tree.
func Decode(r io.Reader, format Format) ([]*Employee, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidInput, err, "read employees")
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, orgerr.New(orgerr.ErrCodeInvalidFormat, "empty employee document")
	}

	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	// Flat list first; it is the common shape from directory exports.
	var list []*Employee
	if err := unmarshal(data, &list); err == nil && len(list) > 0 {
		return flattenAll(list), nil
	}

	var doc document
	if err := unmarshal(data, &doc); err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidFormat, err, "decode %s employees", format)
	}
	switch {
	case len(doc.Employees) > 0:
		return flattenAll(doc.Employees), nil
	case doc.Root != nil:
		return flattenAll([]*Employee{doc.Root}), nil
	}

	var single Employee
	if err := unmarshal(data, &single); err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidFormat, err, "decode %s employees", format)
	}
	if single.ID == "" {
		return nil, orgerr.New(orgerr.ErrCodeInvalidFormat, "no employees found")
	}
	return flattenAll([]*Employee{&single}), nil
}

// Load reads employee records from a JSON or YAML file.
func Load(path string) ([]*Employee, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, orgerr.Wrap(orgerr.ErrCodeFileNotFound, err, "employee file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteJSON encodes a hierarchy rooted at root as indented JSON.
func WriteJSON(w io.Writer, root *Employee) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(root)
}

func flattenAll(top []*Employee) []*Employee {
	var out []*Employee
	var visit func(e *Employee, managerID string)
	visit = func(e *Employee, managerID string) {
		if e == nil {
			return
		}
		c := e.Clone()
		if managerID != "" {
			c.ManagerID = managerID
		}
		out = append(out, c)
		for _, child := range e.Children {
			visit(child, e.ID)
		}
	}
	for _, e := range top {
		visit(e, "")
	}
	return out
}
