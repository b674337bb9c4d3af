package http

import (
	"errors"
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/session"
)

const sessionCookieName = "fintrack_session"

// resumeSession returns the caller's session, starting one and setting
// the cookie when the request carries no live session.
func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	var id string
	if c, err := r.Cookie(sessionCookieName); err == nil {
		id = c.Value
	}

	sess, created, err := s.sessions.Resume(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		log.FromContext(r.Context()).WithComponent(log.ComponentSession).InfoContext(r.Context(), "Session started",
			log.FieldSessionID, sess.ID,
			"replaced", id != "")
	}
	return sess, nil
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionError answers a request whose session could not be used.
func (s *Server) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrEnded) {
		const msg = "Your session has ended. Reload the page to start a new one."
		ConflictError(msg).
			TriggerNotification(NotificationWarning, msg, 5000).
			Write(w)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentSession).ErrorContext(r.Context(), "Session unavailable",
		log.FieldError, err,
		log.FieldErrorType, log.ErrorTypeInternal)
	InternalServerError("Could not open your ledger. Please try again.").Write(w)
}
