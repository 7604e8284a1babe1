package messaging

import (
	"encoding/json"

	"github.com/CloudEngineHub/headlamp/domain"
)

const (
	// MsgPropEvent is the property name for the event type
	MsgPropEvent                      = "event"
	MsgPropEventValueSubscribe        = "Subscribe"
	MsgPropEventValueSubscribed       = "Subscribed"
	MsgPropEventValueUnsubscribe      = "Unsubscribe"
	MsgPropEventValueResync           = "Resync"
	MsgPropEventValueSnapshot         = "Snapshot"
	MsgPropEventValuePatch            = "Patch"
	MsgPropEventValueView             = "View"
	MsgPropEventValueTheme            = "Theme"
	MsgPropEventValueError            = "Error"
	MsgPropEventValueServerConnected  = "ServerConnected"
	MsgPropEventValueSetTheme         = "SetTheme"
	MsgPropEventValueSetSidebarOpen   = "SetSidebarOpen"
	MsgPropEventValueSetSidebarSelect = "SetSidebarSelected"
)

// Generic is the envelope every message shares.
type Generic struct {
	Event string `json:"event"`
	MsgId string `json:"msgId"`
}

type SubscribeMessage struct {
	Event string `json:"event"`
	MsgId string `json:"msgId"`
	// Kind is group/version/resource, with an empty group for the core API.
	Kind      string `json:"kind"`
	Namespace string `json:"namespace,omitempty"`
	// Strategy overrides the server default for this kind.
	Strategy domain.Strategy `json:"strategy,omitempty"`
}

type SubscribedMessage struct {
	Event          string          `json:"event"`
	MsgId          string          `json:"msgId"`
	SubscriptionId string          `json:"subscriptionId"`
	Kind           string          `json:"kind"`
	Namespace      string          `json:"namespace,omitempty"`
	Strategy       domain.Strategy `json:"strategy"`
}

type UnsubscribeMessage struct {
	Event          string `json:"event"`
	MsgId          string `json:"msgId"`
	SubscriptionId string `json:"subscriptionId"`
}

// ResyncMessage asks for a full snapshot, e.g. after a checksum mismatch.
type ResyncMessage struct {
	Event          string `json:"event"`
	MsgId          string `json:"msgId"`
	SubscriptionId string `json:"subscriptionId"`
}

type SnapshotMessage struct {
	Event          string          `json:"event"`
	MsgId          string          `json:"msgId"`
	SubscriptionId string          `json:"subscriptionId"`
	Document       json.RawMessage `json:"document"`
	Checksum       string          `json:"checksum"`
}

// PatchMessage carries a JSON merge patch against the previous document of the subscription.
type PatchMessage struct {
	Event          string          `json:"event"`
	MsgId          string          `json:"msgId"`
	SubscriptionId string          `json:"subscriptionId"`
	Patch          json.RawMessage `json:"patch"`
	Checksum       string          `json:"checksum"`
}

type ViewMessage struct {
	Event string       `json:"event"`
	MsgId string       `json:"msgId"`
	View  ViewDocument `json:"view"`
}

type ThemeMessage struct {
	Event string `json:"event"`
	MsgId string `json:"msgId"`
	Theme string `json:"theme"`
}

type ErrorMessage struct {
	Event          string `json:"event"`
	MsgId          string `json:"msgId"`
	SubscriptionId string `json:"subscriptionId,omitempty"`
	Message        string `json:"message"`
}

type ServerConnectedMessage struct {
	Event          string `json:"event"`
	MsgId          string `json:"msgId"`
	APIVersion     string `json:"apiVersion"`
	ClusterVersion string `json:"clusterVersion,omitempty"`
	CloudProvider  string `json:"cloudProvider,omitempty"`
}

type SetThemeMessage struct {
	Event string `json:"event"`
	MsgId string `json:"msgId"`
	Theme string `json:"theme"`
}

// SetSidebarOpenMessage reports a user toggle of the sidebar.
type SetSidebarOpenMessage struct {
	Event string `json:"event"`
	MsgId string `json:"msgId"`
	Open  bool   `json:"open"`
}

type SetSidebarSelectedMessage struct {
	Event string `json:"event"`
	MsgId string `json:"msgId"`
	Name  string `json:"name"`
}
