package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/utils"
	jsonpatch "github.com/evanphx/json-patch"
)

// Document is the wire form of a resource list snapshot. Items are keyed by uid so that merge
// patches between two documents only touch the items that changed.
type Document struct {
	Kind            string          `json:"kind"`
	Namespace       string          `json:"namespace,omitempty"`
	ResourceVersion string          `json:"resourceVersion"`
	Order           []string        `json:"order"`
	Items           map[string]Item `json:"items"`
}

type Item struct {
	Kind            string            `json:"kind,omitempty"`
	Namespace       string            `json:"namespace,omitempty"`
	Name            string            `json:"name"`
	ResourceVersion string            `json:"resourceVersion"`
	Created         string            `json:"created,omitempty"`
	Checksum        string            `json:"checksum,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}

func NewDocument(scope domain.KindScope, list domain.ResourceList) Document {
	doc := Document{
		Namespace:       scope.Namespace,
		ResourceVersion: list.ResourceVersion,
		Order:           list.UIDs(),
		Items:           make(map[string]Item, len(list.Items)),
	}
	if scope.Kind != nil {
		doc.Kind = scope.Kind.String()
	}
	for _, o := range list.Items {
		item := Item{
			Kind:            o.Kind,
			Namespace:       o.Namespace,
			Name:            o.Name,
			ResourceVersion: o.ResourceVersion,
			Checksum:        o.Checksum,
		}
		if !o.CreationTimestamp.IsZero() {
			item.Created = o.CreationTimestamp.UTC().Format(time.RFC3339)
		}
		if len(o.Fields) > 0 {
			item.Fields = o.Fields
		}
		doc.Items[o.UID] = item
	}
	return doc
}

// Rows returns the items in display order.
func (d Document) Rows() []Item {
	rows := make([]Item, 0, len(d.Order))
	for _, uid := range d.Order {
		if item, ok := d.Items[uid]; ok {
			rows = append(rows, item)
		}
	}
	return rows
}

// Marshal returns the document and its canonical checksum.
func (d Document) Marshal() ([]byte, string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, "", fmt.Errorf("marshal document: %w", err)
	}
	checksum, err := utils.CanonicalHash(b)
	if err != nil {
		return nil, "", fmt.Errorf("hash document: %w", err)
	}
	return b, checksum, nil
}

// Diff returns the merge patch turning previous into next.
func Diff(previous, next []byte) ([]byte, error) {
	patch, err := jsonpatch.CreateMergePatch(previous, next)
	if err != nil {
		return nil, fmt.Errorf("create merge patch: %w", err)
	}
	return patch, nil
}

// ApplyPatch applies a merge patch and verifies the result against checksum.
func ApplyPatch(document, patch []byte, checksum string) ([]byte, error) {
	next, err := jsonpatch.MergePatch(document, patch)
	if err != nil {
		return nil, fmt.Errorf("apply merge patch: %w", err)
	}
	got, err := utils.CanonicalHash(next)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	if got != checksum {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, checksum)
	}
	return next, nil
}
