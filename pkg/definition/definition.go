// Package definition builds string-typed machines from declarative YAML documents.
//
// A document enumerates the states, names the initial one and lists routes:
//
//	name: door
//	initial: closed
//	states: [closed, open, locked]
//	routes:
//	  - event: open
//	    from: closed
//	    to: open
//	  - event: lock
//	    from: [closed]
//	    to: locked
//	    guards: [has_key]
//	  - event: reset
//	    from: "*"
//	    to: closed
//
// A route's from and to accept a single state or a list. "*" as the only source
// means every enumerated state. Guard names are looked up in a GuardRegistry when
// the machine is built; a leading "!" negates the named guard.
package definition

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/routefsm"
)

// AnyState as the only source of a route stands for every enumerated state.
const AnyState = "*"

// ErrInvalidDefinition is returned for documents that cannot describe a machine
var ErrInvalidDefinition = errors.New("invalid machine definition")

// GuardRegistry resolves guard names used by a definition
type GuardRegistry map[string]routefsm.Condition[string]

// ActionRegistry resolves post block names used by a definition
type ActionRegistry map[string]routefsm.PostBlock[string, string]

// StateList is a list of state names that also accepts a single scalar in YAML
type StateList []string

// UnmarshalYAML accepts either a scalar or a sequence of scalars
func (l *StateList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = StateList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a state or a list of states", value.Line)
	}
}

// RouteDef declares one or more routes for an event
type RouteDef struct {
	Event  string    `yaml:"event"`
	From   StateList `yaml:"from"`
	To     StateList `yaml:"to"`
	Guards []string  `yaml:"guards,omitempty"`
	Action string    `yaml:"action,omitempty"`
}

// FromAny reports whether the route leaves every enumerated state
func (r RouteDef) FromAny() bool {
	return len(r.From) == 1 && r.From[0] == AnyState
}

// Definition is a declarative machine description
type Definition struct {
	Name    string     `yaml:"name,omitempty"`
	Initial string     `yaml:"initial"`
	States  []string   `yaml:"states"`
	Routes  []RouteDef `yaml:"routes"`
}

// Parse decodes and validates a YAML definition
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// Load reads and parses a YAML definition file
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks the definition's structure. Guard and action names are checked by Build.
func (d *Definition) Validate() error {
	if len(d.States) == 0 {
		return d.invalid("states must not be empty")
	}

	known := make(map[string]bool, len(d.States))
	for _, state := range d.States {
		if strings.TrimSpace(state) == "" {
			return d.invalid("state names must not be blank")
		}
		if state == AnyState {
			return d.invalid("%q is reserved and cannot be a state", AnyState)
		}
		if known[state] {
			return d.invalid("duplicate state %q", state)
		}
		known[state] = true
	}

	if !known[d.Initial] {
		return d.invalid("initial state %q is not enumerated", d.Initial)
	}

	for i, route := range d.Routes {
		if err := d.validateRoute(i, route, known); err != nil {
			return err
		}
	}

	return nil
}

func (d *Definition) validateRoute(index int, route RouteDef, known map[string]bool) error {
	where := fmt.Sprintf("route %d (%s)", index, route.Event)

	if route.Event == "" {
		return d.invalid("route %d: event must not be empty", index)
	}
	if len(route.From) == 0 {
		return d.invalid("%s: from must not be empty", where)
	}
	if len(route.To) == 0 {
		return d.invalid("%s: to must not be empty", where)
	}
	if len(route.From) > 1 && len(route.To) > 1 {
		return d.invalid("%s: from and to cannot both list several states", where)
	}

	for _, state := range route.From {
		if state == AnyState {
			if len(route.From) > 1 {
				return d.invalid("%s: %q must be the only source", where, AnyState)
			}
			continue
		}
		if !known[state] {
			return d.invalid("%s: unknown source state %q", where, state)
		}
	}

	for _, state := range route.To {
		if !known[state] {
			return d.invalid("%s: unknown target state %q", where, state)
		}
	}

	if route.FromAny() && len(route.To) > 1 {
		return d.invalid("%s: a route from %q needs a single target", where, AnyState)
	}

	for _, guard := range route.Guards {
		if strings.TrimPrefix(guard, "!") == "" {
			return d.invalid("%s: guard names must not be empty", where)
		}
	}

	return nil
}

func (d *Definition) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...))
}

// Build creates an unstarted machine from the definition.
// The definition's name is applied before opts, so opts may override it.
func (d *Definition) Build(guards GuardRegistry, opts ...routefsm.Option[string, string]) (*routefsm.Machine[string, string], error) {
	return d.BuildWithActions(guards, nil, opts...)
}

// BuildWithActions is Build with post blocks resolved through actions.
func (d *Definition) BuildWithActions(guards GuardRegistry, actions ActionRegistry, opts ...routefsm.Option[string, string]) (*routefsm.Machine[string, string], error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if d.Name != "" {
		opts = append([]routefsm.Option[string, string]{routefsm.WithName[string, string](d.Name)}, opts...)
	}

	m, err := routefsm.New[string, string](d.Initial, d.States, opts...)
	if err != nil {
		return nil, err
	}

	for i, route := range d.Routes {
		if err := d.addRoute(m, i, route, guards, actions); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (d *Definition) addRoute(m *routefsm.Machine[string, string], index int, route RouteDef, guards GuardRegistry, actions ActionRegistry) error {
	conditions, err := resolveGuards(route.Guards, guards)
	if err != nil {
		return d.invalid("route %d (%s): %v", index, route.Event, err)
	}

	if route.Action != "" {
		action, ok := actions[route.Action]
		if !ok || action == nil {
			return d.invalid("route %d (%s): unknown action %q", index, route.Event, route.Action)
		}

		sources := []string(route.From)
		if route.FromAny() {
			sources = m.States()
		}
		for _, from := range sources {
			for _, to := range route.To {
				if err := m.AddRouteWithPostBlock(route.Event, from, to, action, conditions...); err != nil {
					return err
				}
			}
		}
		return nil
	}

	switch {
	case route.FromAny():
		return m.AddRoutesFromAny(route.Event, route.To[0], conditions...)
	case len(route.To) > 1:
		return m.AddRoutesTo(route.Event, route.From[0], route.To, conditions...)
	default:
		return m.AddRoutesFrom(route.Event, route.From, route.To[0], conditions...)
	}
}

func resolveGuards(names []string, registry GuardRegistry) ([]routefsm.Condition[string], error) {
	conditions := make([]routefsm.Condition[string], 0, len(names))
	for _, name := range names {
		negate := strings.HasPrefix(name, "!")
		guard, ok := registry[strings.TrimPrefix(name, "!")]
		if !ok || guard == nil {
			return nil, fmt.Errorf("unknown guard %q", strings.TrimPrefix(name, "!"))
		}

		if negate {
			inner := guard
			guard = func(t routefsm.Transition[string]) bool { return !inner(t) }
		}
		conditions = append(conditions, guard)
	}
	return conditions, nil
}
