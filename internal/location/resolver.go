package location

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"ferryhub/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed locations.yaml
var defaultTable []byte

type entry struct {
	Code      string            `yaml:"code"`
	Name      string            `yaml:"name"`
	PortCode  string            `yaml:"port_code"`
	Aliases   []string          `yaml:"aliases"`
	Providers map[string]string `yaml:"providers"`
}

type table struct {
	Locations []entry               `yaml:"locations"`
	Routes    map[string][][]string `yaml:"routes"`
}

// Resolver maps canonical location codes to provider identifiers. It is
// read-only after construction and safe for concurrent use.
type Resolver struct {
	byCode  map[string]entry
	aliases map[string]string
	routes  map[string]map[[2]string]bool
}

// Default returns the resolver built from the embedded table.
func Default() *Resolver {
	r, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("location: embedded table: %v", err))
	}
	return r
}

// Parse builds a resolver from a YAML table.
func Parse(raw []byte) (*Resolver, error) {
	var t table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	r := &Resolver{
		byCode:  map[string]entry{},
		aliases: map[string]string{},
		routes:  map[string]map[[2]string]bool{},
	}
	for _, e := range t.Locations {
		code := key(e.Code)
		if code == "" {
			return nil, fmt.Errorf("location without code")
		}
		if _, dup := r.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate location %q", code)
		}
		e.Code = code
		r.byCode[code] = e
		r.aliases[code] = code
		for _, a := range e.Aliases {
			r.aliases[key(a)] = code
		}
	}
	for provider, pairs := range t.Routes {
		set := map[[2]string]bool{}
		for _, p := range pairs {
			if len(p) != 2 {
				return nil, fmt.Errorf("route for %s must have two endpoints", provider)
			}
			from, to := key(p[0]), key(p[1])
			if _, ok := r.byCode[from]; !ok {
				return nil, fmt.Errorf("route for %s references unknown location %q", provider, p[0])
			}
			if _, ok := r.byCode[to]; !ok {
				return nil, fmt.Errorf("route for %s references unknown location %q", provider, p[1])
			}
			set[[2]string{from, to}] = true
		}
		r.routes[key(provider)] = set
	}
	return r, nil
}

func key(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Canonical returns the canonical code for a code or alias.
func (r *Resolver) Canonical(loc string) (string, bool) {
	code, ok := r.aliases[key(loc)]
	return code, ok
}

func (r *Resolver) lookup(loc string) (entry, bool) {
	code, ok := r.Canonical(loc)
	if !ok {
		return entry{}, false
	}
	e, ok := r.byCode[code]
	return e, ok
}

// Resolve returns the identifier provider expects for loc. Unknown
// locations and providers fail with a validation error.
func (r *Resolver) Resolve(loc, provider string) (string, error) {
	e, ok := r.lookup(loc)
	if !ok {
		return "", domain.ValidationError{Field: "location", Msg: fmt.Sprintf("unsupported location %q", loc)}
	}
	id, ok := e.Providers[key(provider)]
	if !ok || strings.TrimSpace(id) == "" {
		return "", domain.ValidationError{Field: "location", Msg: fmt.Sprintf("%s does not serve %s", provider, e.Code)}
	}
	return id, nil
}

// CodeFor reverse-maps a provider identifier to a canonical code.
func (r *Resolver) CodeFor(provider, providerID string) (string, bool) {
	want := key(providerID)
	for code, e := range r.byCode {
		if id, ok := e.Providers[key(provider)]; ok && key(id) == want {
			return code, true
		}
	}
	return "", false
}

func (r *Resolver) DisplayName(loc string) string {
	if e, ok := r.lookup(loc); ok {
		return e.Name
	}
	return ""
}

func (r *Resolver) PortCode(loc string) string {
	if e, ok := r.lookup(loc); ok {
		return e.PortCode
	}
	return ""
}

// Known reports whether loc is a code or alias in the table.
func (r *Resolver) Known(loc string) bool {
	_, ok := r.lookup(loc)
	return ok
}

// RouteSupported reports whether provider can be searched from -> to.
func (r *Resolver) RouteSupported(provider, from, to string) bool {
	f, ok := r.lookup(from)
	if !ok {
		return false
	}
	t, ok := r.lookup(to)
	if !ok || f.Code == t.Code {
		return false
	}
	p := key(provider)
	if _, ok := f.Providers[p]; !ok {
		return false
	}
	if _, ok := t.Providers[p]; !ok {
		return false
	}
	if set, restricted := r.routes[p]; restricted {
		return set[[2]string{f.Code, t.Code}]
	}
	return true
}

// Routes lists the supported (from, to) pairs for provider, sorted.
func (r *Resolver) Routes(provider string) [][2]string {
	var out [][2]string
	codes := r.Codes()
	for _, from := range codes {
		for _, to := range codes {
			if r.RouteSupported(provider, from, to) {
				out = append(out, [2]string{from, to})
			}
		}
	}
	return out
}

// Codes lists canonical codes in sorted order.
func (r *Resolver) Codes() []string {
	out := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
