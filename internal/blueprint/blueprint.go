package blueprint

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/hearthsim/hearth/internal/core/ecs"
	"github.com/hearthsim/hearth/internal/core/world"
)

var ErrUnknownBlueprint = eris.New("unknown blueprint")

// Blueprint is a named entity template: an ordered list of component values
// kept as raw YAML and decoded fresh for every spawn.
type Blueprint struct {
	Name       string
	components []componentSpec
}

type componentSpec struct {
	typ  ecs.ComponentType
	node *yaml.Node
}

// Types returns the component types the blueprint attaches, in file order.
func (b *Blueprint) Types() []ecs.ComponentType {
	out := make([]ecs.ComponentType, len(b.components))
	for i, c := range b.components {
		out[i] = c.typ
	}
	return out
}

type decoder func(node *yaml.Node) (any, error)

// Library holds blueprints and the decoders that turn YAML into component
// values. Types without a registered decoder become map[string]any (or the
// plain scalar/list the YAML holds).
type Library struct {
	blueprints map[string]*Blueprint
	decoders   map[ecs.ComponentType]decoder
}

func NewLibrary() *Library {
	return &Library{
		blueprints: make(map[string]*Blueprint),
		decoders:   make(map[ecs.ComponentType]decoder),
	}
}

// Register makes c's component type decode into a fresh *T.
func Register[T any](l *Library, c ecs.Component[T]) {
	l.decoders[c.Type()] = func(node *yaml.Node) (any, error) {
		v := new(T)
		if err := node.Decode(v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

type fileYAML struct {
	Blueprints []entryYAML `yaml:"blueprints"`
}

type entryYAML struct {
	Name       string    `yaml:"name"`
	Components yaml.Node `yaml:"components"`
}

// LoadFile reads blueprints from a YAML file.
func (l *Library) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read blueprints %s", path)
	}
	if err := l.Load(raw); err != nil {
		return eris.Wrapf(err, "load blueprints %s", path)
	}
	return nil
}

// Load parses blueprints from YAML. A blueprint whose name is already known
// replaces the old one. Nothing is stored if any entry is malformed.
func (l *Library) Load(raw []byte) error {
	var f fileYAML
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return eris.Wrap(err, "parse blueprints")
	}

	parsed := make([]*Blueprint, 0, len(f.Blueprints))
	for i := range f.Blueprints {
		entry := &f.Blueprints[i]
		if entry.Name == "" {
			return eris.Errorf("blueprint %d has no name", i)
		}
		bp := &Blueprint{Name: entry.Name}
		node := &entry.Components
		switch node.Kind {
		case 0:
			// no components
		case yaml.MappingNode:
			for j := 0; j+1 < len(node.Content); j += 2 {
				bp.components = append(bp.components, componentSpec{
					typ:  ecs.ComponentType(node.Content[j].Value),
					node: node.Content[j+1],
				})
			}
		default:
			return eris.Errorf("blueprint %q: components must be a mapping (line %d)", entry.Name, node.Line)
		}
		parsed = append(parsed, bp)
	}

	for _, bp := range parsed {
		l.blueprints[bp.Name] = bp
	}
	return nil
}

func (l *Library) Get(name string) (*Blueprint, bool) {
	bp, ok := l.blueprints[name]
	return bp, ok
}

// Names returns the sorted blueprint names.
func (l *Library) Names() []string {
	out := make([]string, 0, len(l.blueprints))
	for name := range l.blueprints {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (l *Library) Len() int { return len(l.blueprints) }

// Spawn creates an entity from the named blueprint. Every component is
// decoded before the entity exists, so a decode error leaves the World
// untouched.
func (l *Library) Spawn(w *world.World, name string) (ecs.EntityID, error) {
	bp, ok := l.blueprints[name]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownBlueprint, "spawn %q", name)
	}

	values := make([]any, len(bp.components))
	for i, c := range bp.components {
		v, err := l.decode(c)
		if err != nil {
			return 0, eris.Wrapf(err, "blueprint %q component %q (line %d)", name, c.typ, c.node.Line)
		}
		values[i] = v
	}

	id := w.CreateEntity()
	for i, c := range bp.components {
		w.AddComponent(id, c.typ, values[i])
	}
	return id, nil
}

func (l *Library) decode(c componentSpec) (any, error) {
	if dec, ok := l.decoders[c.typ]; ok {
		return dec(c.node)
	}
	var v any
	if err := c.node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
