package server

import (
	"context"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/matzehuels/orgchart/pkg/session"
)

// SessionCookie names the session cookie.
const SessionCookie = "orgchart_session"

// AdminUser is the username recorded on admin sessions.
const AdminUser = "admin"

type sessionKey struct{}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// withSession attaches the caller's session, if any, to the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookie); err == nil && session.ValidID(c.Value) {
			sess, err := s.sessions.Get(r.Context(), c.Value)
			if err != nil {
				s.logger.Warn("session lookup failed", "error", err)
			}
			if sess != nil && !sess.IsExpired() {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).Authenticated() {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ensureSession returns the caller's session, creating one and setting the
// cookie when there is none.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	if sess := sessionFrom(r.Context()); sess != nil {
		return sess, nil
	}
	return session.New(session.DefaultTTL)
}

// saveSession stores sess and refreshes the cookie.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r.Context()).Authenticated() {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
		return
	}
	writeJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		data, err := readBody(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		_ = json.Unmarshal(data, &req)
	} else {
		req.Password = r.PostFormValue("password")
	}

	s.logger.Info("login attempt", "remote", r.RemoteAddr)
	if !s.checkPassword(req.Password) {
		s.logger.Warn("failed login attempt", "remote", r.RemoteAddr)
		writeMessage(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	sess, err := s.ensureSession(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.Login(AdminUser, session.AdminTTL)
	if err := s.saveSession(w, r, sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("successful login", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "next": safeNext(r.URL.Query().Get("next"))})
}

func (s *Server) checkPassword(password string) bool {
	if s.cfg.AdminPasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) == nil
}

// safeNext keeps only same-site relative redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r.Context()); sess != nil {
		sess.Logout()
		if err := s.saveSession(w, r, sess); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HashPassword returns the bcrypt hash stored in the config file.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
