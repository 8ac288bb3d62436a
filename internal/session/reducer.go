// Package session tracks the client's belief about the current
// authenticated user. A pure reducer owns every transition; the Store
// serializes dispatches and notifies subscribers.
package session

// ActionType names a session transition.
type ActionType string

const (
	// ActionLoading marks a fetch as outstanding. Info is untouched, so
	// the same action serves both cold start and refresh-in-place.
	ActionLoading ActionType = "loading"
	// ActionInterrupt ends an outstanding fetch without a verdict. A
	// failed network call must never guess logout; stale authenticated
	// state survives transient outages.
	ActionInterrupt ActionType = "interrupt"
	// ActionLogin installs a fresh user record.
	ActionLogin ActionType = "login"
	// ActionLogout discards the user record.
	ActionLogout ActionType = "logout"
)

// Action is a dispatched transition. Info is only read for ActionLogin.
type Action struct {
	Type ActionType
	Info *UserRecord
}

// State is the session surface consumers render from.
//
// Info is present iff the client believes the user is authenticated.
// Consumers must gate privileged actions on !Loading && Info != nil.
type State struct {
	Loading bool
	Info    *UserRecord
}

// Authenticated reports whether the state carries a settled, present user.
func (s State) Authenticated() bool {
	return !s.Loading && s.Info != nil
}

// Reduce applies an action to a state. It is a pure function: no
// external reads, same inputs always yield the same output.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionLoading:
		return State{Loading: true, Info: s.Info}
	case ActionInterrupt:
		return State{Loading: false, Info: s.Info}
	case ActionLogin:
		return State{Loading: false, Info: a.Info}
	case ActionLogout:
		return State{Loading: false, Info: nil}
	default:
		return s
	}
}
