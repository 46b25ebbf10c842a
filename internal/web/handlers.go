// ABOUTME: HTTP handlers for the home, sign-in and user pages
// ABOUTME: Translate form posts into flow calls and flow results into redirects or pages

package web

import (
	"errors"
	"net/http"

	"github.com/2389/argent-web/internal/flow"
)

func (a *App) handleHome(w http.ResponseWriter, r *http.Request, req *request) {
	a.renderHome(w, req)
}

func (a *App) handleSignInPage(w http.ResponseWriter, r *http.Request, req *request) {
	res, err := a.signIn.Mount(r.Context(), req.device)
	if err != nil {
		a.handleFlowError(w, r, req, err)
		return
	}
	if res.Navigate != "" {
		http.Redirect(w, r, res.Navigate, http.StatusSeeOther)
		return
	}
	a.renderSignIn(w, req, http.StatusOK, res.Form)
}

func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request, req *request) {
	form := flow.SignInForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Remember: r.FormValue("remember") != "",
	}

	res, err := a.signIn.Submit(r.Context(), req.device, req.store, form)
	switch {
	case errors.Is(err, flow.ErrSubmitInFlight):
		a.renderSignIn(w, req, http.StatusConflict, res.Form)
		return
	case err != nil:
		a.handleFlowError(w, r, req, err)
		return
	}

	if res.Navigate != "" {
		http.Redirect(w, r, res.Navigate, http.StatusSeeOther)
		return
	}
	a.renderSignIn(w, req, http.StatusOK, res.Form)
}

func (a *App) handleUserPage(w http.ResponseWriter, r *http.Request, req *request) {
	view, err := a.userPage.Mount(r.Context(), req.device, req.store)
	if err != nil {
		a.handleFlowError(w, r, req, err)
		return
	}
	if view.Navigate != "" {
		http.Redirect(w, r, view.Navigate, http.StatusSeeOther)
		return
	}
	a.renderUser(w, req, view)
}

func (a *App) handleBeginEdit(w http.ResponseWriter, r *http.Request, req *request) {
	a.userPage.BeginEdit(req.device, req.store)
	http.Redirect(w, r, flow.PathUser, http.StatusSeeOther)
}

func (a *App) handleCancelEdit(w http.ResponseWriter, r *http.Request, req *request) {
	a.userPage.CancelEdit(req.device, req.store)
	http.Redirect(w, r, flow.PathUser, http.StatusSeeOther)
}

// handleSubmitEdit redirects back to the user page in every case the flow
// handled; the edit form and its message are kept by the flow.
func (a *App) handleSubmitEdit(w http.ResponseWriter, r *http.Request, req *request) {
	form := flow.EditForm{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
	}

	view, err := a.userPage.SubmitEdit(r.Context(), req.device, req.store, form)
	if err != nil && !errors.Is(err, flow.ErrNameTooShort) && !errors.Is(err, flow.ErrSubmitInFlight) {
		a.handleFlowError(w, r, req, err)
		return
	}

	target := flow.PathUser
	if view.Navigate != "" {
		target = view.Navigate
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleLogout signs out. A bad CSRF token on the POST is logged but does
// not block logout, and GET is accepted for the header link.
//
// Logout is therefore forgeable: a cross-site <img src="/logout"> signs the
// user out. It only ever removes state, so the worst outcome is an unwanted
// sign-out; it can never act as the user.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request, req *request) {
	if r.Method == http.MethodPost && !a.cookies.validateCSRF(r) {
		req.logger.Warn("logout request with invalid CSRF token")
	}

	view, err := a.userPage.Logout(r.Context(), req.device, req.store)
	if err != nil {
		a.handleFlowError(w, r, req, err)
		return
	}
	http.Redirect(w, r, view.Navigate, http.StatusSeeOther)
}
