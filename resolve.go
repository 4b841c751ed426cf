package infinite

import (
	"fmt"
	"strconv"

	"github.com/meigma/infinite/tagstruct"
)

// maxPathDepth bounds how many resource parents Path follows.
const maxPathDepth = 3

// ResolveTag returns the index of the entry a tag reference points to.
// Nothing is loaded; call ReadTag on the result to decode it.
func (m *Module) ResolveTag(ref tagstruct.TagRef) (int, error) {
	if !ref.Valid() {
		return -1, fmt.Errorf("resolve tag: %w: null reference", ErrTagNotFound)
	}
	i, ok := m.byID[ref.GlobalID]
	if !ok {
		return -1, fmt.Errorf("resolve tag: %w: %s %d", ErrTagNotFound, ref.Group, ref.GlobalID)
	}
	return i, nil
}

// ResolveResource returns the index of the entry holding a resource of
// entry owner.
func (m *Module) ResolveResource(owner int, ref tagstruct.ResourceRef) (int, error) {
	e, err := m.Entry(owner)
	if err != nil {
		return -1, fmt.Errorf("resolve resource: %w", err)
	}
	if !ref.Valid() || ref.Slot < 0 || int(ref.Slot) >= len(e.resources) {
		return -1, fmt.Errorf("resolve resource: %w: slot %d of %d", ErrIndexOutOfRange, ref.Slot, len(e.resources))
	}
	return int(e.resources[ref.Slot]), nil
}

// Path returns a display path for entry i.
//
// Named entries use their string table name. Tags become
// "group/globalid.group". Raw resources are named after their parent as
// "parent[n:resource]", where n is the position among the parent's resources.
func (m *Module) Path(i int) (string, error) {
	if _, err := m.Entry(i); err != nil {
		return "", err
	}
	return m.path(i, 0)
}

func (m *Module) path(i, depth int) (string, error) {
	if depth > maxPathDepth {
		return "", fmt.Errorf("%w: resource parents nested deeper than %d", ErrIndexOutOfRange, maxPathDepth)
	}
	e := &m.entries[i]
	switch {
	case e.Name != "":
		return e.Name, nil
	case !e.IsRaw():
		return fmt.Sprintf("%s/%d.%s", e.Group, e.GlobalID, e.Group), nil
	case e.Parent == -1 || int(e.Parent) == i:
		return strconv.FormatInt(e.GlobalID, 10), nil
	}

	parent := int(e.Parent)
	n := 0
	for _, ri := range m.entries[parent].resources {
		if int(ri) == i {
			break
		}
		n++
	}
	pp, err := m.path(parent, depth+1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%d:resource]", pp, n), nil
}
