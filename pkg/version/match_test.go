package version

import "testing"

func mustParse(t *testing.T, name, raw string) *Requested {
	t.Helper()
	r, err := Parse(name, raw)
	if err != nil {
		t.Fatalf("Parse(%q, %q): %v", name, raw, err)
	}
	return r
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		installed string // raw spec the package was installed for, "" for none
		req       string
		want      bool
	}{
		{"caret match", "1.4.0", "", "^1.2.0", true},
		{"caret mismatch", "2.0.0", "", "^1.2.0", false},
		{"tilde match", "1.2.9", "", "~1.2.0", true},
		{"tilde mismatch", "1.3.0", "", "~1.2.0", false},
		{"exact match", "1.2.3", "", "1.2.3", true},
		{"exact mismatch", "1.2.4", "", "1.2.3", false},
		{"star", "0.0.1", "", "*", true},
		{"or range", "3.1.0", "", "^2 || ^3", true},
		{"tag without identity", "1.0.0", "", "latest", false},
		{"tag with identity", "1.0.0", "latest", "latest", true},
		{"git without identity", "1.0.0", "", "github:a/b", false},
		{"git with identity", "1.0.0", "github:a/b", "github:a/b", true},
		{"same range different raw", "1.0.0", "^1.0.0", "^1.0.0", true},
		{"invalid installed version", "not-a-version", "", "^1.0.0", false},
		{"prerelease excluded", "2.0.0-beta.1", "", "^1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var installed *Requested
			if tt.installed != "" {
				installed = mustParse(t, "pkg", tt.installed)
			}
			req := mustParse(t, "pkg", tt.req)
			if got := Satisfies(tt.version, installed, req); got != tt.want {
				t.Errorf("Satisfies(%q, %v, %q) = %v, want %v", tt.version, installed, tt.req, got, tt.want)
			}
		})
	}
}

func TestSatisfiesAlias(t *testing.T) {
	req := mustParse(t, "underscore", "npm:lodash@^4.0.0")
	if !Satisfies("4.17.21", nil, req) {
		t.Error("alias range should match installed version")
	}
	if Satisfies("3.0.0", nil, req) {
		t.Error("alias range should reject out-of-range version")
	}
}

func TestSatisfiesNilRequest(t *testing.T) {
	if Satisfies("1.0.0", nil, nil) {
		t.Error("nil request should never match")
	}
}

func TestConstraintCache(t *testing.T) {
	if _, ok := constraint("^1.0.0"); !ok {
		t.Fatal("^1.0.0 should parse")
	}
	if _, ok := constraints.Get("^1.0.0"); !ok {
		t.Error("parsed constraint should be cached")
	}
	if _, ok := constraint("not a range!"); ok {
		t.Error("garbage should not parse")
	}
	if c, ok := constraints.Get("not a range!"); !ok || c != nil {
		t.Error("failed parse should be cached as nil")
	}
}
