package security

import (
	"strings"
)

// Permissions are the user access flags of the /P entry in an encryption
// dictionary
type Permissions struct {
	Print            bool `json:"print"`              // bit 3
	Modify           bool `json:"modify"`             // bit 4
	Copy             bool `json:"copy"`               // bit 5
	Annotate         bool `json:"annotate"`           // bit 6
	FillForms        bool `json:"fill_forms"`         // bit 9
	Extract          bool `json:"extract"`            // bit 10
	Assemble         bool `json:"assemble"`           // bit 11
	PrintHighQuality bool `json:"print_high_quality"` // bit 12
}

// NewPermissions decodes a /P value
func NewPermissions(perms int32) Permissions {
	return Permissions{
		Print:            perms&0x04 != 0,
		Modify:           perms&0x08 != 0,
		Copy:             perms&0x10 != 0,
		Annotate:         perms&0x20 != 0,
		FillForms:        perms&0x200 != 0,
		Extract:          perms&0x400 != 0,
		Assemble:         perms&0x800 != 0,
		PrintHighQuality: perms&0x1000 != 0,
	}
}

func (p Permissions) flags() []struct {
	name string
	set  bool
} {
	return []struct {
		name string
		set  bool
	}{
		{"print", p.Print},
		{"modify", p.Modify},
		{"copy", p.Copy},
		{"annotate", p.Annotate},
		{"fill_forms", p.FillForms},
		{"extract", p.Extract},
		{"assemble", p.Assemble},
		{"print_high_quality", p.PrintHighQuality},
	}
}

// Allowed lists the granted operations
func (p Permissions) Allowed() []string {
	var out []string
	for _, f := range p.flags() {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

// Denied lists the withheld operations
func (p Permissions) Denied() []string {
	var out []string
	for _, f := range p.flags() {
		if !f.set {
			out = append(out, f.name)
		}
	}
	return out
}

// IsRestricted returns true if any permission is denied
func (p Permissions) IsRestricted() bool {
	return len(p.Denied()) > 0
}

// String returns a string representation of the permissions
func (p Permissions) String() string {
	allowed := p.Allowed()
	if len(allowed) == 0 {
		return "Permissions{none}"
	}
	return "Permissions{" + strings.Join(allowed, ", ") + "}"
}
