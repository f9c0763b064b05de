// Package lexicon holds the static entity vocabulary used for cheap entity
// detection: a declaration-ordered list of names, each tagged as an
// organization or a public figure.
package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the category of a named entity.
type Kind string

const (
	KindOrganization Kind = "organization"
	KindPerson       Kind = "person"
)

// Valid reports whether k is a known category.
func (k Kind) Valid() bool {
	return k == KindOrganization || k == KindPerson
}

// Entity is a named organization or public figure.
// Identity is the exact (Kind, Name) pair; the struct is comparable and is
// used directly as a map key.
type Entity struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// Org returns an organization entity.
func Org(name string) Entity { return Entity{Kind: KindOrganization, Name: name} }

// Person returns a public-figure entity.
func Person(name string) Entity { return Entity{Kind: KindPerson, Name: name} }

// Key returns the normalized identity string, e.g. "organization:Tesla".
func (e Entity) Key() string {
	return string(e.Kind) + ":" + e.Name
}

func (e Entity) String() string { return e.Key() }

// Entry is a single lexicon declaration.
type Entry struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
}

// Lexicon is an immutable, declaration-ordered entity vocabulary.
// Duplicate (Kind, Name) declarations are collapsed to the first one.
type Lexicon struct {
	entries []Entry
}

// New builds a lexicon from entries, dropping blanks, unknown kinds and
// duplicates while preserving declaration order.
func New(entries ...Entry) *Lexicon {
	seen := make(map[Entity]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" || !e.Kind.Valid() {
			continue
		}
		id := Entity{Kind: e.Kind, Name: e.Name}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, e)
	}
	return &Lexicon{entries: out}
}

// Entries returns a copy of the declarations in order.
func (l *Lexicon) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of declarations.
func (l *Lexicon) Len() int { return len(l.entries) }

// Names returns the declared names of one kind, in declaration order.
func (l *Lexicon) Names(kind Kind) []string {
	var names []string
	for _, e := range l.entries {
		if e.Kind == kind {
			names = append(names, e.Name)
		}
	}
	return names
}

// Merge returns a new lexicon with extra appended after l's own entries.
func (l *Lexicon) Merge(extra ...Entry) *Lexicon {
	all := make([]Entry, 0, len(l.entries)+len(extra))
	all = append(all, l.entries...)
	all = append(all, extra...)
	return New(all...)
}

// file is the on-disk layout of a lexicon extension file.
type file struct {
	Organizations []string `yaml:"organizations"`
	People        []string `yaml:"people"`
	Entries       []Entry  `yaml:"entries"`
}

// Load reads a YAML lexicon extension file:
//
//	organizations: [Anthropic, Mistral]
//	people: [Demis Hassabis]
//	entries:
//	  - {name: Hugging Face, kind: organization}
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	entries := make([]Entry, 0, len(f.Organizations)+len(f.People)+len(f.Entries))
	for _, name := range f.Organizations {
		entries = append(entries, Entry{Name: name, Kind: KindOrganization})
	}
	for _, name := range f.People {
		entries = append(entries, Entry{Name: name, Kind: KindPerson})
	}
	for _, e := range f.Entries {
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("lexicon %s: entry %q has unknown kind %q", path, e.Name, e.Kind)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
