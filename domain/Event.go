package domain

// UIEventType represents an enum of UIEventType.
type UIEventType uint

const (
	UIEventSidebarSetSelected UIEventType = iota
	UIEventSidebarSetVisible
	UIEventSidebarSetItem
	UIEventSidebarSetExpanded
	UIEventRouteSet
	UIEventDetailsHeaderActionSet
	UIEventDetailsViewSectionSet
	UIEventAppBarActionSet
	UIEventThemeSet
	UIEventResetPluginViews
)

// Value returns the value of the enum.
func (op UIEventType) Value() any {
	if op >= UIEventType(len(UIEventTypeValues)) {
		return nil
	}
	return UIEventTypeValues[op]
}

var UIEventTypeValues = []any{
	"SIDEBAR_SET_SELECTED",
	"SIDEBAR_SET_VISIBLE",
	"SIDEBAR_SET_ITEM",
	"SIDEBAR_SET_EXPANDED",
	"ROUTE_SET",
	"DETAILS_HEADER_ACTION_SET",
	"DETAILS_VIEW_SECTION_SET",
	"APP_BAR_ACTION_SET",
	"THEME_SET",
	"RESET_PLUGIN_VIEWS",
}
var ValuesToUIEventType = map[any]UIEventType{
	UIEventTypeValues[UIEventSidebarSetSelected]:     UIEventSidebarSetSelected,
	UIEventTypeValues[UIEventSidebarSetVisible]:      UIEventSidebarSetVisible,
	UIEventTypeValues[UIEventSidebarSetItem]:         UIEventSidebarSetItem,
	UIEventTypeValues[UIEventSidebarSetExpanded]:     UIEventSidebarSetExpanded,
	UIEventTypeValues[UIEventRouteSet]:               UIEventRouteSet,
	UIEventTypeValues[UIEventDetailsHeaderActionSet]: UIEventDetailsHeaderActionSet,
	UIEventTypeValues[UIEventDetailsViewSectionSet]:  UIEventDetailsViewSectionSet,
	UIEventTypeValues[UIEventAppBarActionSet]:        UIEventAppBarActionSet,
	UIEventTypeValues[UIEventThemeSet]:               UIEventThemeSet,
	UIEventTypeValues[UIEventResetPluginViews]:       UIEventResetPluginViews,
}
