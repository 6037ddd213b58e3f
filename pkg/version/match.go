package version

import (
	"github.com/Masterminds/semver/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// constraintCacheSize bounds the number of distinct range strings kept parsed.
// Real trees repeat a small set of ranges many times.
const constraintCacheSize = 2048

var constraints *lru.Cache[string, *semver.Constraints]

func init() {
	c, err := lru.New[string, *semver.Constraints](constraintCacheSize)
	if err != nil {
		panic(err)
	}
	constraints = c
}

// constraint returns the parsed range for raw. Unparseable ranges are cached
// as nil so repeated lookups stay cheap.
func constraint(raw string) (*semver.Constraints, bool) {
	if c, ok := constraints.Get(raw); ok {
		return c, c != nil
	}
	c, err := semver.NewConstraint(raw)
	if err != nil {
		constraints.Add(raw, nil)
		return nil, false
	}
	constraints.Add(raw, c)
	return c, true
}

// Satisfies reports whether an installed package with the given version,
// installed for installedReq (may be nil), fulfils req.
//
// A "*" range always matches. A specifier identical to the one the package
// was installed for matches. Registry specifiers (version, range) are checked
// with semver; every other kind only matches by identity.
func Satisfies(installedVersion string, installedReq, req *Requested) bool {
	if req == nil {
		return false
	}
	if req.Type == TypeAlias && req.Sub != nil {
		return Satisfies(installedVersion, unalias(installedReq), req.Sub)
	}
	if req.Raw == "*" {
		return true
	}
	if installedReq != nil {
		if installedReq.Raw == req.Raw {
			return true
		}
		if installedReq.Type == req.Type && installedReq.FetchSpec == req.FetchSpec {
			return true
		}
	}
	if !req.IsRegistry() {
		return false
	}
	v, err := semver.NewVersion(installedVersion)
	if err != nil {
		return false
	}
	if req.Type == TypeVersion {
		want, err := semver.NewVersion(req.FetchSpec)
		return err == nil && v.Equal(want)
	}
	c, ok := constraint(req.FetchSpec)
	return ok && c.Check(v)
}

func unalias(r *Requested) *Requested {
	if r != nil && r.Type == TypeAlias && r.Sub != nil {
		return r.Sub
	}
	return r
}
