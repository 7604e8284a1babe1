package domain

// Element represents a renderable descriptor handed over to the render layer.
type Element struct {
	Component string
	Props     map[string]interface{}
}
