// Package ginguard adapts csrf.Guard to gin, naming actions by the matched
// route (gin.Context.FullPath).
package ginguard

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

// Middleware returns a gin handler enforcing g. Rejected requests are
// rendered by the guard's ErrorHandler and the chain is aborted.
func Middleware(g *csrf.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := Action(c)

		// templates outside the guard's scope may still render a token
		r, perr := g.Prepare(c.Writer, c.Request)
		if perr == nil {
			c.Request = r
		}
		if !g.Applies(action) {
			c.Next()
			return
		}

		if err := g.VerifyHTTP(c.Request, action); err != nil {
			if perr != nil && !csrf.IsDenied(err) {
				err = perr
			}
			_ = c.Error(err)
			g.Fail(c.Writer, c.Request, action, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Action returns the route pattern gin matched, or the URL path for unmatched routes.
func Action(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// Token returns the current token for a request handled by Middleware.
func Token(g *csrf.Guard, c *gin.Context) (string, error) {
	return g.Token(c.Request)
}

// FormField renders the hidden token input for templates.
func FormField(g *csrf.Guard, c *gin.Context) (template.HTML, error) {
	return g.FormField(c.Request)
}
