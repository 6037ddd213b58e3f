// Package version parses requested dependency specifiers ("^1.2.0", "latest",
// "npm:other@2", "github:user/repo") and decides whether an installed package
// satisfies one.
package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/stacktrim/pkg/errors"
)

// Type classifies a requested specifier.
type Type string

const (
	TypeVersion   Type = "version"
	TypeRange     Type = "range"
	TypeTag       Type = "tag"
	TypeAlias     Type = "alias"
	TypeGit       Type = "git"
	TypeRemote    Type = "remote"
	TypeFile      Type = "file"
	TypeDirectory Type = "directory"
)

// Requested is a parsed dependency specifier.
type Requested struct {
	Name      string // package name the specifier applies to
	Raw       string // specifier exactly as declared
	Type      Type
	FetchSpec string // normalized form used for matching

	// Sub is the target of an alias ("npm:other@^2").
	Sub *Requested
}

// String returns "name@raw".
func (r *Requested) String() string {
	if r == nil {
		return ""
	}
	if r.Raw == "" {
		return r.Name
	}
	return r.Name + "@" + r.Raw
}

// IsRegistry reports whether the specifier is resolved through a registry
// version lookup, i.e. can be matched with semver.
func (r *Requested) IsRegistry() bool {
	return r.Type == TypeVersion || r.Type == TypeRange
}

// ParseArg parses a "name@spec" argument. A leading "@" belongs to the scope.
func ParseArg(arg string) (*Requested, error) {
	name, raw := arg, ""
	if i := strings.LastIndex(arg, "@"); i > 0 {
		name, raw = arg[:i], arg[i+1:]
	}
	return Parse(name, raw)
}

// Parse classifies raw as requested for the package name.
func Parse(name, raw string) (*Requested, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	r := &Requested{Name: name, Raw: raw}

	switch {
	case raw == "" || raw == "latest":
		r.Type, r.FetchSpec = TypeTag, "latest"
	case strings.HasPrefix(raw, "npm:"):
		sub, err := ParseArg(strings.TrimPrefix(raw, "npm:"))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPackage, err, "alias %s@%s", name, raw)
		}
		r.Type, r.FetchSpec, r.Sub = TypeAlias, sub.FetchSpec, sub
	case isGit(raw):
		r.Type, r.FetchSpec = TypeGit, raw
	case strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://"):
		r.Type, r.FetchSpec = TypeRemote, raw
	case isTarball(raw):
		r.Type, r.FetchSpec = TypeFile, strings.TrimPrefix(raw, "file:")
	case isDirectory(raw):
		r.Type, r.FetchSpec = TypeDirectory, strings.TrimPrefix(raw, "file:")
	default:
		exact := strings.TrimPrefix(strings.TrimPrefix(raw, "="), "v")
		if v, err := semver.StrictNewVersion(exact); err == nil {
			r.Type, r.FetchSpec = TypeVersion, v.String()
		} else if _, ok := constraint(raw); ok {
			r.Type, r.FetchSpec = TypeRange, raw
		} else {
			r.Type, r.FetchSpec = TypeTag, raw
		}
	}
	return r, nil
}

// Exact returns the specifier pinning name to version, used when nothing
// better is known about why a package was installed.
func Exact(name, version string) (*Requested, error) {
	return Parse(name, version)
}

func isGit(raw string) bool {
	for _, prefix := range []string{"git+", "git://", "github:", "gitlab:", "bitbucket:", "gist:"} {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	if strings.HasSuffix(raw, ".git") {
		return true
	}
	// user/repo shorthand
	return !strings.ContainsAny(raw, " :@<>=") &&
		strings.Count(raw, "/") == 1 &&
		!strings.HasPrefix(raw, ".") &&
		!strings.HasPrefix(raw, "/") &&
		!strings.HasPrefix(raw, "~")
}

func isTarball(raw string) bool {
	return strings.HasSuffix(raw, ".tgz") || strings.HasSuffix(raw, ".tar.gz") || strings.HasSuffix(raw, ".tar")
}

func isDirectory(raw string) bool {
	for _, prefix := range []string{"file:", "./", "../", "/", "~/"} {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}
