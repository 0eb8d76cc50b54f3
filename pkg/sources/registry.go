package sources

import (
	"fmt"
	"sort"
	"time"

	"github.com/defeedco/prefetch/pkg/snapshot"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SummarySlot is the snapshot name reserved for the run summary.
const SummarySlot = "fetch-summary"

// Descriptor declares one source of the registry.
type Descriptor struct {
	Name    string
	Enabled bool
	// CacheLifetime is advisory: how long consumers may treat the snapshot as fresh.
	CacheLifetime time.Duration
	// Snapshot is the slot the source's envelope is written to. Defaults to Name.
	Snapshot string
	Fetcher  types.Fetcher
}

// Registry is the ordered table of known sources.
// Descriptors are copied in and never mutated afterwards.
type Registry struct {
	descriptors []Descriptor
	byName      map[string]int
	bySlot      map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]int),
		bySlot: make(map[string]string),
	}
}

func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if d.Name == SummarySlot {
		return fmt.Errorf("source name '%s' is reserved", d.Name)
	}
	if _, ok := r.byName[d.Name]; ok {
		return fmt.Errorf("source '%s' already registered", d.Name)
	}
	if d.Fetcher == nil {
		return fmt.Errorf("source '%s' has no fetcher", d.Name)
	}
	if d.CacheLifetime < 0 {
		return fmt.Errorf("source '%s' has a negative cache lifetime", d.Name)
	}
	if d.Snapshot == "" {
		d.Snapshot = d.Name
	}
	if d.Snapshot == SummarySlot {
		return fmt.Errorf("source '%s' cannot write to the summary slot", d.Name)
	}
	if err := snapshot.ValidateName(d.Snapshot); err != nil {
		return fmt.Errorf("source '%s' has an invalid slot '%s': %w", d.Name, d.Snapshot, err)
	}
	if owner, ok := r.bySlot[d.Snapshot]; ok {
		return fmt.Errorf("source '%s' cannot share slot '%s' with '%s'", d.Name, d.Snapshot, owner)
	}

	r.byName[d.Name] = len(r.descriptors)
	r.bySlot[d.Snapshot] = d.Name
	r.descriptors = append(r.descriptors, d)

	return nil
}

// MustRegister is Register for static tables; it panics on a bad descriptor.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Descriptors returns every registered source in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

func (r *Registry) Get(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// Resolve returns the sources a run should process, in registration order.
//
// Selecting all yields the enabled sources. Selecting names yields exactly
// the registered sources with those names, enabled or not. Unknown names
// are ignored.
func (r *Registry) Resolve(sel Selection) []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if sel.All() {
			if d.Enabled {
				out = append(out, d)
			}
			continue
		}
		if sel.Includes(d.Name) {
			out = append(out, d)
		}
	}
	return out
}

// Unknown lists the selected names that are not registered.
func (r *Registry) Unknown(sel Selection) []string {
	var out []string
	for _, name := range sel.Names() {
		if _, ok := r.byName[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Suggest ranks registered names that look like name, closest first.
func (r *Registry) Suggest(name string) []string {
	names := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		names[i] = d.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(name, names)
	if len(ranks) == 0 {
		// Typos rarely keep every letter in order, so also try the reverse match.
		for _, n := range names {
			if fuzzy.MatchNormalizedFold(n, name) {
				ranks = append(ranks, fuzzy.Rank{Target: n})
			}
		}
	}
	sort.Sort(ranks)

	out := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, rank.Target)
	}
	return out
}
