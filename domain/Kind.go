package domain

// Kind represents a Kind model.
type Kind struct {
	Group    string
	Version  string
	Resource string
}
