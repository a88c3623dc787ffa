package domain

import (
	"reflect"
	"slices"
	"strconv"
)

// DocumentDiff lists the dotted paths that differ between two documents.
// It is designed to be serialized to JSON next to a normalized document.
type DocumentDiff struct {
	// Added holds paths present only in the new document.
	Added []string `json:"added,omitempty"`
	// Removed holds paths present only in the old document.
	Removed []string `json:"removed,omitempty"`
	// Changed holds paths whose scalar value differs.
	Changed []string `json:"changed,omitempty"`
}

// Diff calculates the difference between oldDoc and newDoc. Nested maps and
// lists are compared element by element; paths come back sorted.
// It returns nil when the documents are equal.
func Diff(oldDoc, newDoc map[string]any) *DocumentDiff {
	d := &DocumentDiff{}
	d.diffMaps("", oldDoc, newDoc)
	if d.IsEmpty() {
		return nil
	}
	slices.Sort(d.Added)
	slices.Sort(d.Removed)
	slices.Sort(d.Changed)
	return d
}

func (d *DocumentDiff) diffMaps(prefix string, old, new map[string]any) {
	for k, newVal := range new {
		path := join(prefix, k)
		oldVal, exists := old[k]
		if !exists {
			d.Added = append(d.Added, path)
			continue
		}
		d.diffValues(path, oldVal, newVal)
	}

	for k := range old {
		if _, exists := new[k]; !exists {
			d.Removed = append(d.Removed, join(prefix, k))
		}
	}
}

func (d *DocumentDiff) diffValues(path string, oldVal, newVal any) {
	oldMap, oldIsMap := oldVal.(map[string]any)
	newMap, newIsMap := newVal.(map[string]any)
	if oldIsMap && newIsMap {
		d.diffMaps(path, oldMap, newMap)
		return
	}

	oldList, oldIsList := oldVal.([]any)
	newList, newIsList := newVal.([]any)
	if oldIsList && newIsList && len(oldList) == len(newList) {
		for i := range newList {
			d.diffValues(join(path, strconv.Itoa(i)), oldList[i], newList[i])
		}
		return
	}

	if !reflect.DeepEqual(oldVal, newVal) {
		d.Changed = append(d.Changed, path)
	}
}

// IsEmpty checks if the diff contains any changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d == nil || len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
