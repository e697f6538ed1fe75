// Package navigation holds the navigation state: an ordered stack of screens
// plus at most one modally presented overlay.
package navigation

// Route names a screen kind.
type Route string

const (
	RouteLaunch    Route = "launch"
	RouteHome      Route = "home"
	RouteEntry     Route = "entry"
	RouteChat      Route = "chat"
	RoutePlayer    Route = "player"
	RouteSave      Route = "save"
	RouteUnderline Route = "underline"
	RouteCamera    Route = "camera"
	RouteSidebar   Route = "sidebar"
	RouteLike      Route = "like"
	RouteRecord    Route = "record"
)

// IsOverlay reports whether the route is presented modally instead of pushed.
func (r Route) IsOverlay() bool {
	return r == RouteCamera || r == RouteSidebar
}

// Title is the human label of a route.
func (r Route) Title() string {
	switch r {
	case RouteLaunch:
		return "Welcome"
	case RouteHome:
		return "Home"
	case RouteEntry:
		return "Docent"
	case RouteChat:
		return "Ask the docent"
	case RoutePlayer:
		return "Now playing"
	case RouteSave:
		return "Save to folder"
	case RouteUnderline:
		return "Underlines"
	case RouteCamera:
		return "Camera"
	case RouteSidebar:
		return "Menu"
	case RouteLike:
		return "Likes"
	case RouteRecord:
		return "Visit records"
	default:
		return string(r)
	}
}
