package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jewelry-storefront/internal/metrics"
	"jewelry-storefront/internal/service/session"
)

const (
	defaultSessionCookie = "sf_session"
	sessionHeader        = "X-Session-Token"
	sessionCtxKey        = "storefront.session"
)

// requestLogger logs one line per request through zerolog.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest:
			evt = logger.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http: request")
	}
}

func observeRequests(m *metrics.Storefront) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// sessionMiddleware resolves the guest session from the cookie or header,
// issuing a fresh one when it is missing or expired.
func sessionMiddleware(sessions sessionService, cookieName string, secure bool, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		token := c.GetHeader(sessionHeader)
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}

		sess, err := sessions.Lookup(ctx, token)
		if err != nil {
			if !errors.Is(err, session.ErrInvalidToken) {
				logger.Warn().Err(err).Msg("http: session lookup failed")
			}
			sess, err = sessions.Issue(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("http: issue session")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error": gin.H{"code": "DEPENDENCY_ERROR", "message": "session store unavailable"},
				})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, sess.Token, int(sessions.TTL().Seconds()), "/", "", secure, true)
		}

		c.Header(sessionHeader, sess.Token)
		c.Set(sessionCtxKey, sess)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	if v, ok := c.Get(sessionCtxKey); ok {
		if sess, ok := v.(session.Session); ok {
			return sess.ID
		}
	}
	return ""
}
