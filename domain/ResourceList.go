package domain

// ResourceList represents a ResourceList model.
type ResourceList struct {
	Kind            *Kind
	ResourceVersion string
	Items           []ResourceObject
}

// IndexOf returns the position of the item with the given uid, or -1.
func (l ResourceList) IndexOf(uid string) int {
	for i := range l.Items {
		if l.Items[i].UID == uid {
			return i
		}
	}
	return -1
}

// UIDs returns item uids in display order.
func (l ResourceList) UIDs() []string {
	uids := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		uids = append(uids, item.UID)
	}
	return uids
}
