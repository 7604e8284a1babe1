package domain

import (
	"fmt"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// ActionKind represents an enum of ActionKind.
type ActionKind uint

const (
	ActionAbsent ActionKind = iota
	ActionElement
	ActionCallable
)

func (k ActionKind) String() string {
	switch k {
	case ActionElement:
		return "element"
	case ActionCallable:
		return "callable"
	default:
		return "absent"
	}
}

// ActionFunc produces an element for the resource currently shown, or nil.
type ActionFunc func(resource *ResourceObject) *Element

// RegisteredAction is an action contributed by a plugin, classified once at registration.
type RegisteredAction struct {
	ID       string
	Kind     ActionKind
	element  *Element
	callable ActionFunc
}

// NewRegisteredAction classifies payload as an element, a callable or nothing.
func NewRegisteredAction(id string, payload interface{}) RegisteredAction {
	action := RegisteredAction{ID: id}
	switch p := payload.(type) {
	case nil:
	case Element:
		action.Kind = ActionElement
		action.element = &p
	case *Element:
		if p != nil {
			action.Kind = ActionElement
			action.element = p
		}
	case ActionFunc:
		if p != nil {
			action.Kind = ActionCallable
			action.callable = p
		}
	case func(*ResourceObject) *Element:
		if p != nil {
			action.Kind = ActionCallable
			action.callable = p
		}
	default:
		logger.L().Warning("unsupported action payload, ignoring",
			helpers.String("id", id),
			helpers.String("type", fmt.Sprintf("%T", payload)))
	}
	return action
}

// Element returns the static element of an ActionElement action.
func (a RegisteredAction) Element() *Element {
	return a.element
}

// Render resolves the action for resource. Absent actions render nothing.
func (a RegisteredAction) Render(resource *ResourceObject) (element *Element) {
	switch a.Kind {
	case ActionElement:
		return a.element
	case ActionCallable:
		defer func() {
			if r := recover(); r != nil {
				logger.L().Warning("action panicked during render",
					helpers.String("id", a.ID),
					helpers.Interface("panic", r))
				element = nil
			}
		}()
		return a.callable(resource)
	default:
		return nil
	}
}
