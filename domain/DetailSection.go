package domain

// SectionFunc renders an extra section of a resource details view.
type SectionFunc func(resource *ResourceObject) *Element

// DetailSection represents a DetailSection model.
type DetailSection struct {
	ID     string
	Render SectionFunc
}
