package mirror

import (
	"fmt"
	"reflect"
	"slices"
)

// index maps value identity to the live nodes mirroring that value. It
// never owns nodes: entries are added and removed in step with node
// creation and teardown. Sibling duplicates share a key, so each key holds
// a list.
type index struct {
	nodes map[any][]*Node
	size  int
}

func newIndex() *index {
	return &index{nodes: make(map[any][]*Node)}
}

// refKey stands in for values whose dynamic type cannot be a map key.
type refKey struct {
	typ reflect.Type
	ptr uintptr
	len int
	str string
}

func identityKey(value any) any {
	if value == nil {
		return nil
	}
	t := reflect.TypeOf(value)
	v := reflect.ValueOf(value)
	// Value.Comparable also inspects interface fields, so a struct holding
	// a slice behind an interface falls through to a refKey.
	if v.Comparable() {
		return value
	}
	switch v.Kind() {
	case reflect.Slice:
		return refKey{typ: t, ptr: v.Pointer(), len: v.Len()}
	case reflect.Map, reflect.Func:
		return refKey{typ: t, ptr: v.Pointer()}
	default:
		return refKey{typ: t, str: fmt.Sprintf("%#v", value)}
	}
}

func (x *index) add(value any, n *Node) {
	key := identityKey(value)
	x.nodes[key] = append(x.nodes[key], n)
	x.size++
}

func (x *index) remove(value any, n *Node) bool {
	key := identityKey(value)
	list := x.nodes[key]
	i := slices.Index(list, n)
	if i < 0 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(x.nodes, key)
	} else {
		x.nodes[key] = list
	}
	x.size--
	return true
}

func (x *index) lookup(value any) *Node {
	list := x.nodes[identityKey(value)]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

func (x *index) contains(value any, n *Node) bool {
	return slices.Contains(x.nodes[identityKey(value)], n)
}

func (x *index) len() int {
	return x.size
}
