package security

import (
	"reflect"
	"testing"
)

func TestNewPermissions(t *testing.T) {
	tests := []struct {
		name    string
		value   int32
		allowed []string
		denied  []string
	}{
		{
			name:    "no restrictions",
			value:   -4,
			allowed: []string{"print", "modify", "copy", "annotate", "fill_forms", "extract", "assemble", "print_high_quality"},
		},
		{
			name:    "no modify and no annotate",
			value:   -44,
			allowed: []string{"print", "copy", "fill_forms", "extract", "assemble", "print_high_quality"},
			denied:  []string{"modify", "annotate"},
		},
		{
			name:   "nothing allowed",
			value:  0,
			denied: []string{"print", "modify", "copy", "annotate", "fill_forms", "extract", "assemble", "print_high_quality"},
		},
		{
			name:    "print only",
			value:   0x04,
			allowed: []string{"print"},
			denied:  []string{"modify", "copy", "annotate", "fill_forms", "extract", "assemble", "print_high_quality"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perms := NewPermissions(tt.value)
			if got := perms.Allowed(); !reflect.DeepEqual(got, tt.allowed) {
				t.Errorf("Allowed() = %v, want %v", got, tt.allowed)
			}
			if got := perms.Denied(); !reflect.DeepEqual(got, tt.denied) {
				t.Errorf("Denied() = %v, want %v", got, tt.denied)
			}
			if perms.IsRestricted() != (len(tt.denied) > 0) {
				t.Errorf("IsRestricted() = %v with denied %v", perms.IsRestricted(), tt.denied)
			}
		})
	}
}

func TestPermissions_String(t *testing.T) {
	if got := NewPermissions(0).String(); got != "Permissions{none}" {
		t.Errorf("String() = %s", got)
	}
	if got := NewPermissions(0x14).String(); got != "Permissions{print, copy}" {
		t.Errorf("String() = %s", got)
	}
}
