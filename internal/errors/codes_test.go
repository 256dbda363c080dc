package errors

import "testing"

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		phase string
	}{
		{"PAR001", PAR001, "parse"},
		{"PAR006", PAR006, "parse"},
		{"MOD002", MOD002, "loader"},
		{"RES001", RES001, "resolve"},
		{"RES003", RES003, "resolve"},
		{"TC001", TC001, "typecheck"},
		{"TC006", TC006, "typecheck"},
		{"TC009", TC009, "typecheck"},
		{"GEN001", GEN001, "codegen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phase(tt.code); got != tt.phase {
				t.Errorf("Phase(%s) = %q, want %q", tt.code, got, tt.phase)
			}
		})
	}
}

func TestPhaseUnknownCode(t *testing.T) {
	if got := Phase("NOPE999"); got != "" {
		t.Errorf("Phase(unknown) = %q, want empty", got)
	}
}
