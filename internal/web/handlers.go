// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/oops"

	"github.com/userportal/userportal/internal/auth"
	"github.com/userportal/userportal/pkg/errutil"
)

// MsgCaptchaIncorrect is returned when the registration CAPTCHA does not match.
const MsgCaptchaIncorrect = "The CAPTCHA answer is incorrect"

// statusFor maps an auth outcome to an HTTP status.
func statusFor(outcome auth.Outcome) int {
	switch outcome {
	case auth.OutcomeSuccess:
		return http.StatusOK
	case auth.OutcomeValidationError, auth.OutcomeDuplicate:
		return http.StatusBadRequest
	case auth.OutcomeInvalidCredentials, auth.OutcomeUnauthorized:
		return http.StatusUnauthorized
	case auth.OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the public message for err with the matching status.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	outcome := auth.OutcomeOf(err)
	h.recordAuth(operation, outcome)
	if outcome == auth.OutcomeInternalError {
		// The service has already logged the cause.
		h.logger.DebugContext(r.Context(), "request failed", "operation", operation)
	}
	http.Error(w, auth.PublicMessage(err), statusFor(outcome))
}

func (h *Handler) recordAuth(operation string, outcome auth.Outcome) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.RecordAuthEvent(operation, string(outcome))
	}
}

// parseForm reads a urlencoded or multipart body, bounded by maxFormBytes.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return oops.Code("WEB_FORM_INVALID").Wrap(&auth.ValidationError{Message: "Invalid form submission"})
	}
	return nil
}

// captchaSolved reports whether captcha_answer and captcha_sum are present
// and equal as integers.
func captchaSolved(r *http.Request) bool {
	answer, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("captcha_answer")))
	if err != nil {
		return false
	}
	sum, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("captcha_sum")))
	if err != nil {
		return false
	}
	return answer == sum
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, "register", err)
		return
	}

	if h.opts.RequireCaptcha && !captchaSolved(r) {
		h.recordAuth("register", auth.OutcomeValidationError)
		http.Error(w, MsgCaptchaIncorrect, http.StatusBadRequest)
		return
	}

	_, err := h.svc.Register(r.Context(), auth.RegistrationForm{
		FirstName:       r.PostFormValue("first_name"),
		LastName:        r.PostFormValue("last_name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}

	h.recordAuth("register", auth.OutcomeSuccess)
	http.Redirect(w, r, PathRegisterSuccess, http.StatusFound)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, "login", err)
		return
	}

	session, err := h.svc.Login(r.Context(), auth.LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}

	h.recordAuth("login", auth.OutcomeSuccess)
	h.setSessionCookie(w, session.Token)
	http.Redirect(w, r, PathLoginSuccess, http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), sessionToken(r)); err != nil {
		h.fail(w, r, "logout", err)
		return
	}

	h.recordAuth("logout", auth.OutcomeSuccess)
	h.clearSessionCookie(w)
	http.Redirect(w, r, PathIndex, http.StatusFound)
}

type editPageData struct {
	FirstName string
	LastName  string
}

func (h *Handler) handleEditPage(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Authenticate(r.Context(), sessionToken(r))
	if errors.Is(err, auth.ErrUnauthorized) {
		http.Redirect(w, r, PathLogin, http.StatusFound)
		return
	}
	if err != nil {
		h.fail(w, r, "edit_page", err)
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), session.UserID)
	if err != nil {
		h.fail(w, r, "edit_page", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.editPage.Execute(w, editPageData{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}); err != nil {
		errutil.LogErrorContext(r.Context(), h.logger, "render edit page",
			oops.Code("WEB_RENDER_FAILED").With("template", "edit.html").Wrap(err))
	}
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, "edit", err)
		return
	}

	err := h.svc.UpdateProfile(r.Context(), sessionToken(r), auth.ProfileForm{
		FirstName:       r.PostFormValue("first_name"),
		LastName:        r.PostFormValue("last_name"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	if err != nil {
		h.fail(w, r, "edit", err)
		return
	}

	h.recordAuth("edit", auth.OutcomeSuccess)
	http.Redirect(w, r, PathEditSuccess, http.StatusFound)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Authenticate(r.Context(), sessionToken(r))
	if err != nil {
		h.fail(w, r, "profile", err)
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), session.UserID)
	if err != nil {
		h.fail(w, r, "profile", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(profile); err != nil {
		errutil.LogErrorContext(r.Context(), h.logger, "encode profile",
			oops.Code("WEB_ENCODE_FAILED").Wrap(err))
	}
}
