// Package session holds the per-browser authentication and profile state.
//
// # States
//
// A Session is always in exactly one State:
//
//   - Anonymous: no token
//   - AuthenticatedNoProfile: token present, profile not fetched yet
//   - AuthenticatedWithProfile: token and profile present
//
// The profile only exists inside AuthenticatedWithProfile, so "profile
// without token" cannot be represented.
//
// # Transitions
//
//   - StoreToken: Anonymous -> AuthenticatedNoProfile, sets RememberUser
//   - ClearSession: any -> Anonymous, the only way a profile is removed
//   - SetProfile: AuthenticatedNoProfile -> AuthenticatedWithProfile (or replace);
//     rejected with ErrNoToken when anonymous
//   - SetError / ClearError: orthogonal to the state
//
// # Ownership
//
// Stores are not global. The web layer owns a Registry that hands out one
// Store per device ID:
//
//	reg := session.NewRegistry()
//	st := reg.Get(deviceID)
//	_ = st.StoreToken(token)
//	snap := st.Snapshot()
package session
