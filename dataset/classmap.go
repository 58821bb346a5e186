package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ClassMap remaps source class ids to destination class ids. A nil value drops
// every object of that class; ids absent from the map are dropped too.
type ClassMap map[int]*int

// To returns a pointer to id, for building ClassMap literals.
func To(id int) *int {
	return &id
}

// Lookup returns the destination id for a source class id, and false when the
// class is dropped.
func (m ClassMap) Lookup(id int) (int, bool) {
	to, ok := m[id]
	if !ok || to == nil {
		return 0, false
	}
	return *to, true
}

// String renders the map in the form accepted by ParseClassMap, keys ascending.
func (m ClassMap) String() string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if to := m[k]; to != nil {
			parts = append(parts, fmt.Sprintf("%d=%d", k, *to))
		} else {
			parts = append(parts, fmt.Sprintf("%d=drop", k))
		}
	}
	return strings.Join(parts, ",")
}

// ParseClassMap parses a comma-separated list of "from=to" pairs. A target of
// "drop", "null", "none" or "-" drops the class.
//
// Arguments:
//   - s: The mapping, e.g. "0=drop,1=3".
//
// Returns:
//   - ClassMap: The parsed map, nil when s is blank.
//   - error: An error if a pair is malformed or a key repeats.
//
// @example
// m, _ := ParseClassMap("0=drop,1=3")
// to, ok := m.Lookup(1) // 3, true
func ParseClassMap(s string) (ClassMap, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	m := ClassMap{}
	for _, pair := range strings.Split(s, ",") {
		from, to, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return nil, errors.Errorf("class map entry %q: expected from=to", pair)
		}
		key, err := parseClassID(from)
		if err != nil {
			return nil, errors.Wrapf(err, "class map entry %q", pair)
		}
		if _, dup := m[key]; dup {
			return nil, errors.Errorf("class map entry %q: class %d mapped twice", pair, key)
		}

		switch strings.ToLower(strings.TrimSpace(to)) {
		case "drop", "null", "none", "-":
			m[key] = nil
		default:
			val, err := parseClassID(to)
			if err != nil {
				return nil, errors.Wrapf(err, "class map entry %q", pair)
			}
			m[key] = To(val)
		}
	}
	return m, nil
}

func parseClassID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrap(err, "parse class id")
	}
	if id < 0 {
		return 0, errors.Errorf("class id %d is negative", id)
	}
	return id, nil
}
