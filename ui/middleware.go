package ui

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"gotendency/internal/errors"
	"gotendency/internal/session"
)

const sessionKey = "session"

// requestLogger writes one line per request to the structured logger
func requestLogger(logger log.Logger) gin.HandlerFunc {
	logger = log.With(logger, "component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		lvl := level.Debug
		switch {
		case status >= 500:
			lvl = level.Error
		case status >= 400:
			lvl = level.Warn
		}
		lvl(logger).Log(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"took", time.Since(start),
		)
	}
}

// sessionMiddleware attaches the caller's session, starting a new one when the
// cookie is missing or its session has expired
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(s.opts.CookieName)

		sess, created, err := s.sessions.GetOrCreate(c.Request.Context(), id)
		if err != nil {
			s.writeError(c, err)
			return
		}
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(s.opts.CookieName, sess.ID, int(s.opts.CookieMaxAge.Seconds()), "/", "", false, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// writeError maps an application error onto a JSON error response
func (s *Server) writeError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		level.Error(s.logger).Log("msg", "request failed", "path", c.Request.URL.Path, "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":    errors.GetCode(err),
		"message": err.Error(),
	}})
}
