package dagconfig

import (
	"fmt"
	"sort"
	"strings"
)

// Builder turns loosely typed form input into a canonical Document.
//
// A Builder owns exactly one document; create one per request. Builders share
// no state, so separate Builders can be used concurrently.
type Builder struct {
	doc Document
}

// Option configures a Builder.
type Option func(*Defaults)

// WithDefaultOwner overrides the default_args.owner skeleton value.
func WithDefaultOwner(owner string) Option {
	return func(d *Defaults) { d.Owner = owner }
}

// NewBuilder returns a Builder holding a fresh skeleton.
func NewBuilder(opts ...Option) *Builder {
	var def Defaults
	for _, o := range opts {
		if o != nil {
			o(&def)
		}
	}
	return &Builder{doc: skeleton(def)}
}

// Apply routes every known key of raw through its normalization rule and
// returns the cleaned document. It never fails: values that cannot be coerced
// leave their key absent. Unknown keys are ignored.
//
// A nested "default_args" mapping is accepted too; its entries are routed like
// top-level keys but only land when their rule targets default_args. Keys are
// processed in sorted order so the result does not depend on map iteration.
func (b *Builder) Apply(raw map[string]any) Document {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := raw[k]
		if k == KeyDefaultArgs {
			if nested, ok := v.(map[string]any); ok {
				b.applyNested(nested)
			}
			continue
		}
		if r, ok := RuleFor(k); ok {
			b.set(k, r, v)
		}
	}
	return b.Document()
}

func (b *Builder) applyNested(raw map[string]any) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if r, ok := RuleFor(k); ok && r.Scope == ScopeDefaultArgs {
			b.set(k, r, raw[k])
		}
	}
}

func (b *Builder) set(key string, r Rule, v any) {
	target := map[string]any(b.doc)
	if r.Scope == ScopeDefaultArgs {
		target = b.doc.defaultArgsForWrite()
	}
	nv, ok := r.normalize(v)
	if !ok {
		delete(target, key)
		return
	}
	target[key] = cloneValue(nv)
}

// AddOverlay merges fragment into the top level of the document, last write
// wins. Keys outside the canonical schema are allowed. Values are copied, so
// later changes to fragment do not leak into the document.
func (b *Builder) AddOverlay(fragment map[string]any) {
	for k, v := range fragment {
		b.doc[k] = cloneValue(v)
	}
}

// Document returns a cleaned deep copy of the current document.
func (b *Builder) Document() Document {
	out := b.doc.Clone()
	clean(out)
	return out
}

// Validate checks the current document. See Validate.
func (b *Builder) Validate() []string {
	return Validate(b.Document())
}

// Request is one generation request as submitted by a form.
type Request struct {
	Config  map[string]any   `json:"dag_config"`
	Overlay map[string]any   `json:"custom_objects"`
	Tasks   []map[string]any `json:"tasks"`
}

// Generate runs the full pipeline: normalize, add tasks, overlay, validate.
// The document is returned even when errs is non-empty.
func Generate(req Request, opts ...Option) (doc Document, errs []string) {
	b := NewBuilder(opts...)
	b.Apply(req.Config)
	for _, t := range req.Tasks {
		b.AddTask(t)
	}
	b.AddOverlay(req.Overlay)
	doc = b.Document()
	return doc, Validate(doc)
}

// ParseOverlay accepts an overlay as a mapping or as JSON text (comments and
// trailing commas allowed). Nil and blank text yield a nil overlay.
func ParseOverlay(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parsed, err := parseJSON(v)
	if err != nil {
		return nil, fmt.Errorf("custom_objects: %w", err)
	}
	m, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("custom_objects: must be an object, got %T", parsed)
	}
	return m, nil
}
