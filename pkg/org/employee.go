package org

import "strings"

// Employee is a single person in the directory.
//
// The same type serves both as a flat record (ManagerID set, Children empty)
// and as a node of the built hierarchy (Children populated). JSON names
// follow the employees endpoint contract.
type Employee struct {
	ID             string      `json:"id" yaml:"id" bson:"id"`
	Name           string      `json:"name" yaml:"name" bson:"name"`
	Title          string      `json:"title" yaml:"title" bson:"title"`
	Department     string      `json:"department" yaml:"department" bson:"department"`
	Email          string      `json:"email,omitempty" yaml:"email,omitempty" bson:"email,omitempty"`
	Phone          string      `json:"phone,omitempty" yaml:"phone,omitempty" bson:"phone,omitempty"`
	BusinessPhone  string      `json:"businessPhone,omitempty" yaml:"businessPhone,omitempty" bson:"business_phone,omitempty"`
	Location       string      `json:"location,omitempty" yaml:"location,omitempty" bson:"location,omitempty"`
	OfficeLocation string      `json:"officeLocation,omitempty" yaml:"officeLocation,omitempty" bson:"office_location,omitempty"`
	City           string      `json:"city,omitempty" yaml:"city,omitempty" bson:"city,omitempty"`
	State          string      `json:"state,omitempty" yaml:"state,omitempty" bson:"state,omitempty"`
	Country        string      `json:"country,omitempty" yaml:"country,omitempty" bson:"country,omitempty"`
	HireDate       string      `json:"hireDate,omitempty" yaml:"hireDate,omitempty" bson:"hire_date,omitempty"`
	PhotoURL       string      `json:"photoUrl,omitempty" yaml:"photoUrl,omitempty" bson:"photo_url,omitempty"`
	IsNewEmployee  bool        `json:"isNewEmployee" yaml:"isNewEmployee,omitempty" bson:"is_new_employee"`
	AccountEnabled *bool       `json:"accountEnabled,omitempty" yaml:"accountEnabled,omitempty" bson:"account_enabled,omitempty"`
	UserType       string      `json:"userType,omitempty" yaml:"userType,omitempty" bson:"user_type,omitempty"`
	ManagerID      string      `json:"managerId,omitempty" yaml:"managerId,omitempty" bson:"manager_id,omitempty"`
	Children       []*Employee `json:"children" yaml:"children,omitempty" bson:"children"`
}

// Enabled reports whether the account is enabled. A missing flag counts as enabled.
func (e *Employee) Enabled() bool {
	return e.AccountEnabled == nil || *e.AccountEnabled
}

// HasDynamicPhoto reports whether the photo is served by the backend photo
// endpoint rather than being a static icon.
func (e *Employee) HasDynamicPhoto() bool {
	return IsDynamicPhoto(e.PhotoURL)
}

// Clone returns a copy of e without children.
func (e *Employee) Clone() *Employee {
	c := *e
	c.Children = nil
	if e.AccountEnabled != nil {
		v := *e.AccountEnabled
		c.AccountEnabled = &v
	}
	return &c
}

// Walk visits e and every descendant depth-first in child order.
// Returning false from fn skips the node's children.
func (e *Employee) Walk(fn func(*Employee) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Flatten returns e and all descendants in depth-first order.
func (e *Employee) Flatten() []*Employee {
	var out []*Employee
	e.Walk(func(n *Employee) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Count returns the number of employees in the subtree rooted at e.
func (e *Employee) Count() int {
	n := 0
	e.Walk(func(*Employee) bool { n++; return true })
	return n
}

// Find returns the employee with the given id in the subtree, or nil.
func (e *Employee) Find(id string) *Employee {
	var found *Employee
	e.Walk(func(n *Employee) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// dynamicPhotoPath marks photo URLs served by the backend.
const dynamicPhotoPath = "/api/photo/"

// IsDynamicPhoto reports whether url points at the backend photo endpoint.
func IsDynamicPhoto(url string) bool {
	return strings.Contains(url, dynamicPhotoPath)
}
