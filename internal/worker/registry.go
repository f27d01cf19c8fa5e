package worker

import (
	"sort"
	"strings"

	"imageoptim/internal/binres"
	"imageoptim/internal/config"
	"imageoptim/internal/imgformat"
)

// class ties a worker name to its constructor. The slice order is the
// discovery order used to break run-order ties.
type class struct {
	name  string
	build func(env *Env, raw map[string]any) (Worker, error)
}

func classes() []class {
	return []class{
		{"jhead", newJhead},
		{"jpegoptim", newJpegoptim},
		{"jpegtran", newJpegtran},
		{"pngquant", newPngquant},
		{"pngcrush", newPngcrush},
		{"optipng", newOptipng},
		{"oxipng", newOxipng},
		{"advpng", newAdvpng},
		{"pngout", newPngout},
		{"gifsicle", newGifsicle},
		{"svgo", newSvgo},
	}
}

// ClassNames lists every known worker class in discovery order.
func ClassNames() []string {
	cls := classes()
	names := make([]string, 0, len(cls))
	for _, c := range cls {
		names = append(names, c.name)
	}
	return names
}

// binConstraints captures minimum versions and known-broken ranges for the
// binaries that need them.
var binConstraints = map[string]binres.Constraint{
	"advpng":   {Min: binres.MustVersion("1.17")},
	"gifsicle": {Min: binres.MustVersion("1.85")},
	"pngquant": {Min: binres.MustVersion("2.0")},
	"oxipng":   {Min: binres.MustVersion("2.0")},
	"pngcrush": {
		Broken: []binres.Range{
			{Low: binres.MustVersion("1.7.60"), High: binres.MustVersion("1.7.66")},
		},
	},
}

// BinConstraint returns the version constraint for a binary; the zero
// constraint accepts everything.
func BinConstraint(name string) binres.Constraint {
	return binConstraints[name]
}

// Registry holds the constructed worker instances in discovery order. It
// is immutable after construction and shared across images.
type Registry struct {
	workers  []Worker
	explicit map[string]bool
}

// NewRegistry validates the per-worker configuration and constructs every
// enabled worker. Unknown worker names are fatal configuration errors.
func NewRegistry(env *Env, cfgs map[string]config.Worker) (*Registry, error) {
	known := make(map[string]bool)
	for _, c := range classes() {
		known[c.name] = true
	}
	for name := range cfgs {
		if !known[name] {
			return nil, config.Errorf("unknown worker %q (known: %s)",
				name, strings.Join(ClassNames(), ", "))
		}
	}

	reg := &Registry{explicit: make(map[string]bool)}
	for _, c := range classes() {
		wc := cfgs[c.name]
		if !wc.On() {
			continue
		}
		w, err := c.build(env, wc.Options)
		if err != nil {
			return nil, err
		}
		reg.workers = append(reg.workers, w)
		if wc.Explicit() {
			reg.explicit[c.name] = true
		}
	}
	return reg, nil
}

// Workers returns all constructed workers in discovery order.
func (r *Registry) Workers() []Worker {
	return append([]Worker(nil), r.workers...)
}

// Explicit reports whether the named worker was explicitly enabled in
// configuration, which makes its missing binary fatal.
func (r *Registry) Explicit(name string) bool {
	return r.explicit[name]
}

// ForFormat returns the workers handling format, ordered by run order with
// discovery order breaking ties.
func (r *Registry) ForFormat(format imgformat.Format) []Worker {
	var selected []Worker
	for _, w := range r.workers {
		for _, f := range w.Formats() {
			if f == format {
				selected = append(selected, w)
				break
			}
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RunOrder() < selected[j].RunOrder()
	})
	return selected
}
