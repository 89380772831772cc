package session

// Route is a top-level view of the application.
type Route int

// Routes.
const (
	RouteLoading Route = iota
	RouteLogin
	RouteHome
)

func (r Route) String() string {
	switch r {
	case RouteLoading:
		return "loading"
	case RouteLogin:
		return "login"
	case RouteHome:
		return "home"
	default:
		return "unknown"
	}
}

// Resolve applies the navigation guard: nothing but the loading view is
// reachable before the startup check completes, protected views redirect to
// login when unauthenticated, and login redirects home when authenticated.
// No return path is remembered across the redirect.
func Resolve(status Status, requested Route) Route {
	switch status {
	case Authenticated:
		if requested == RouteLogin || requested == RouteLoading {
			return RouteHome
		}
		return requested
	case Unauthenticated:
		return RouteLogin
	default:
		return RouteLoading
	}
}
