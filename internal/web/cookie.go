// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package web

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "sessionId"

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if h.opts.CookieMaxAge > 0 {
		cookie.MaxAge = cookieSeconds(h.opts.CookieMaxAge)
	}
	http.SetCookie(w, cookie)
}

// cookieSeconds rounds d up to whole seconds so a positive lifetime never
// becomes Max-Age 0.
func cookieSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

// clearSessionCookie tells the browser to drop the cookie (Max-Age=0).
func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// sessionToken returns the token from the request cookie, or "".
func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
