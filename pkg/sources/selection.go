package sources

import "strings"

const selectAllToken = "all"

// Selection is the subset of sources a caller asks for:
// either every enabled source or an explicit set of names.
type Selection struct {
	names []string
	set   map[string]struct{}
}

// All selects every enabled source.
func All() Selection {
	return Selection{}
}

// Names selects exactly the named sources, overriding their enabled flag.
// Duplicates and empty names are dropped.
func Names(names ...string) Selection {
	sel := Selection{set: make(map[string]struct{})}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := sel.set[name]; ok {
			continue
		}
		sel.set[name] = struct{}{}
		sel.names = append(sel.names, name)
	}
	return sel
}

// ParseSelection reads the command line form: empty or "all" selects every
// enabled source, anything else is a comma separated list of names.
func ParseSelection(arg string) Selection {
	arg = strings.TrimSpace(arg)
	if arg == "" || arg == selectAllToken {
		return All()
	}
	return Names(strings.Split(arg, ",")...)
}

func (s Selection) All() bool {
	return s.set == nil
}

func (s Selection) Includes(name string) bool {
	if s.All() {
		return true
	}
	_, ok := s.set[name]
	return ok
}

// Names returns the explicit names in the order given. It is empty for All.
func (s Selection) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s Selection) String() string {
	if s.All() {
		return selectAllToken
	}
	return strings.Join(s.names, ",")
}
