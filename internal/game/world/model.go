// Package world provides the game world content model: areas, rooms, exits,
// and localizable text, plus the tolerant loader that builds the in-memory
// world index from an on-disk content tree.
package world

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Untranslated is the fixed fallback returned when a localized field has no
// entry for the requested locale.
const Untranslated = "UNTRANSLATED - Contact an admin"

// Location is the globally unique identifier of a Room. Numeric identifiers
// in content files keep their literal scalar form, so a room defined with
// "location: 1001" is registered under Location("1001").
type Location string

// UnmarshalYAML decodes any scalar node as its literal text.
func (l *Location) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("location must be a scalar value")
	}
	*l = Location(node.Value)
	return nil
}

// Text is a localizable field: either a bare string or a mapping from locale
// code to string. Any other shape decodes without error and resolves to the
// Untranslated sentinel when read.
type Text struct {
	plain   bool
	value   string
	locales map[string]string
	set     bool
}

// PlainText returns a Text holding a bare string.
func PlainText(s string) Text {
	return Text{plain: true, value: s, set: true}
}

// LocalizedText returns a Text holding a locale-to-string mapping.
func LocalizedText(locales map[string]string) Text {
	m := make(map[string]string, len(locales))
	for k, v := range locales {
		m[k] = v
	}
	return Text{locales: m, set: true}
}

// UnmarshalYAML accepts a scalar or a locale mapping. Other shapes are kept
// as present-but-unresolvable so the fault surfaces at read time, not during
// the load pass.
func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.plain = true
		t.value = node.Value
	case yaml.MappingNode:
		t.locales = make(map[string]string, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			t.locales[node.Content[i].Value] = node.Content[i+1].Value
		}
	}
	t.set = true
	return nil
}

// MarshalYAML emits the original shape of the field, or nothing at all when
// the field was absent from the source record.
func (t Text) MarshalYAML() (interface{}, error) {
	if !t.set {
		return nil, nil
	}
	if t.plain {
		return t.value, nil
	}
	return t.locales, nil
}

// Resolve returns the bare string regardless of locale, the mapped value for
// a present locale, or the Untranslated sentinel otherwise.
func (t Text) Resolve(locale string) string {
	if t.plain {
		return t.value
	}
	if s, ok := t.locales[locale]; ok {
		return s
	}
	return Untranslated
}

// IsZero reports whether the field was absent from the source record.
func (t Text) IsZero() bool {
	return !t.set
}

// Exit is a passage out of a room. The leave message is shown to occupants
// when something departs through it. Exit records are opaque: keys beyond the
// three the engine reads are carried verbatim in Raw and survive Flatten and
// Stringify untouched.
type Exit struct {
	// Direction is the compass direction or named exit (e.g., "stairs").
	Direction string
	// Target is the location of the destination room.
	Target Location
	// LeaveMessage is the optional localizable departure message.
	LeaveMessage Text
	// Raw holds every key the engine does not interpret, decoded generically.
	Raw map[string]any
}

// exitFields covers the keys the engine interprets.
type exitFields struct {
	Direction    string   `yaml:"direction"`
	Target       Location `yaml:"location"`
	LeaveMessage Text     `yaml:"leave_message"`
}

func isExitEngineKey(key string) bool {
	return key == "direction" || key == "location" || key == "leave_message"
}

// UnmarshalYAML decodes the interpreted keys into their typed fields and
// every other key into Raw.
func (e *Exit) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("exit must be a mapping")
	}
	var f exitFields
	if err := node.Decode(&f); err != nil {
		return err
	}
	e.Direction = f.Direction
	e.Target = f.Target
	e.LeaveMessage = f.LeaveMessage

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if isExitEngineKey(key) {
			continue
		}
		var v any
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("exit key %q: %w", key, err)
		}
		if e.Raw == nil {
			e.Raw = make(map[string]any)
		}
		e.Raw[key] = v
	}
	return nil
}

// MarshalYAML emits the interpreted fields merged with Raw, restoring the
// record's original key set. An unset leave message is omitted.
func (e Exit) MarshalYAML() (interface{}, error) {
	out := make(map[string]any, len(e.Raw)+3)
	for k, v := range e.Raw {
		out[k] = v
	}
	out["direction"] = e.Direction
	out["location"] = e.Target
	if !e.LeaveMessage.IsZero() {
		out["leave_message"] = e.LeaveMessage
	}
	return out, nil
}

// Area is the metadata record for a named world region, one per area
// directory manifest. Immutable after load.
type Area struct {
	// Key is the manifest key the area was registered under.
	Key string
	// Title is the localizable display name of the area.
	Title Text
	// Fields carries every manifest field verbatim, including title.
	Fields map[string]any
}

// RoomConfig is the decoded form of one room record plus the provenance
// stamped by the loader before construction.
type RoomConfig struct {
	Title       Text     `yaml:"title"`
	Description Text     `yaml:"description"`
	Location    Location `yaml:"location"`
	Exits       []Exit   `yaml:"exits"`
	// Behaviors names the scripted behaviors to attach at construction.
	Behaviors []string `yaml:"behaviors"`

	// Stamped by the loader; never present in content files.
	Area      string `yaml:"-"`
	Filename  string `yaml:"-"`
	FileIndex string `yaml:"-"`
}

// RoomView is the locale-resolved flat form of a room, for consumers that
// cannot resolve locales themselves.
type RoomView struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Exits       []Exit   `yaml:"exits"`
	Location    Location `yaml:"location"`
	Area        string   `yaml:"area"`
}

// RoomSnapshot is the raw, unresolved form of a room, useful for debugging
// and round-tripping content.
type RoomSnapshot struct {
	Title       Text     `yaml:"title"`
	Description Text     `yaml:"description"`
	Exits       []Exit   `yaml:"exits"`
	Location    Location `yaml:"location"`
	Area        string   `yaml:"area"`
}
