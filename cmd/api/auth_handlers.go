package main

import (
	"net"
	"net/http"
	"slices"
	"strings"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/otel"
	"orderdesk/pkg/session"
)

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{
		SessionID: s.ID, UserID: s.UserID, UserEmail: s.UserEmail, IsAdmin: s.IsAdmin,
		CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt,
	}
}

// adminUserID derives a stable user id for an administrator email.
func adminUserID(email string) string {
	return "admin_" + session.HashID(email)[:8]
}

// loginHandler issues a session for a known customer or configured administrator.
// @Summary Login
// @Description Looks up the email among active customers and ADMIN_EMAILS and issues a session.
// @Tags auth
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 201 {object} sessionResponse
// @Failure 401 {object} errorResponse
// @Router /auth/login [post]
func loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, r, apperr.Validation("email", "email is required"))
		return
	}

	var userID string
	isAdmin := slices.Contains(cfg.AdminEmailList(), email)
	if isAdmin {
		userID = adminUserID(email)
	} else {
		c, ok, err := customers.Lookup(ctx, email)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeError(w, r, apperr.New(apperr.AuthenticationInvalid, "INVALID_CREDENTIALS", "Unknown or inactive account").
				WithChallenge("Bearer"))
			return
		}
		userID = c.ID
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	s, err := sessions.Create(ctx, userID, email, isAdmin, ip, r.UserAgent())
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info(ctx, "login", "user_id", userID, "session", session.HashID(s.ID), "is_admin", isAdmin)
	writeJSON(w, http.StatusCreated, toSessionResponse(s))
}

// logoutHandler invalidates the presented session.
// @Summary Logout
// @Tags auth
// @Success 204
// @Failure 401 {object} errorResponse
// @Security SessionAuth
// @Router /auth/logout [post]
func logoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "logoutHandler")
	defer span.End()

	id := session.IDFromRequest(r)
	if id == "" {
		writeError(w, r, session.ErrMissing())
		return
	}
	if _, err := sessions.Invalidate(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionHandler returns the caller's session after refreshing it.
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} sessionResponse
// @Failure 401 {object} errorResponse
// @Security SessionAuth
// @Router /auth/session [get]
func sessionHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "sessionHandler")
	defer span.End()

	s, err := sessions.AuthenticateRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}
