package web

import (
	"crypto/hmac"
	"net/http"

	"github.com/google/uuid"

	"github.com/omarluq/itemdesk/internal/apiclient"
)

// FormTokenField is the hidden form field that echoes the anti-forgery cookie.
const FormTokenField = "csrf_token"

// LoginTokenCookie holds the form token of the login page. Visitors have no
// backend anti-forgery cookie before they log in, so the frontend issues
// its own.
const LoginTokenCookie = "itemdesk_login"

// checkFormToken compares the submitted form token with the anti-forgery
// cookie (double submit). A mismatch is reported the way the backend reports
// it, so the auth gate treats both alike.
func checkFormToken(r *http.Request, cookieName string) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return csrfFailure()
	}
	submitted := r.PostFormValue(FormTokenField)
	if !hmac.Equal([]byte(cookie.Value), []byte(submitted)) {
		return csrfFailure()
	}
	return nil
}

func csrfFailure() error {
	return apiclient.NewCSRFFailure(apiclient.MsgCSRFFailed)
}

// loginToken returns the login form token of r, issuing a new cookie when r
// carries none.
func loginToken(w http.ResponseWriter, r *http.Request) string {
	if token := csrfCookie(r, LoginTokenCookie); token != "" {
		return token
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     LoginTokenCookie,
		Value:    token,
		Path:     "/login",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// csrfCookie returns the anti-forgery cookie value of r, or "".
func csrfCookie(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
