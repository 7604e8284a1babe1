package domain

// Theme represents a Theme model.
type Theme struct {
	Name string
}
