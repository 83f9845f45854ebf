package auth

import (
	"errors"
	"net/http"
	"photovote/apperr"
	"photovote/config"
	"strings"

	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

// HandlerFunc is only called once the admin capability was verified
type HandlerFunc func(c *gin.Context, admin *Admin)

// Router is a wrapper that adds the admin check in front of handlers
type Router struct {
	Base gin.IRouter
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc) {
	admin, err := AdminFrom(c)
	if err != nil {
		status := apperr.Status(err)
		if errors.Is(err, ErrAdminNotConfigured) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	handler(c, admin)
}

func (cr *Router) POST(path string, handler HandlerFunc) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) GET(path string, handler HandlerFunc) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

// AdminFrom checks the X-Admin-Key header, a Bearer token and finally the session
func AdminFrom(c *gin.Context) (*Admin, error) {
	if config.ADMIN_KEY == "" {
		return nil, ErrAdminNotConfigured
	}
	key := c.GetHeader(AdminKeyHeader)
	if key == "" {
		key, _ = strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if key != "" {
		return VerifyAdminKey(key)
	}
	if admin := LoadSession(c).Admin(); admin.Valid() {
		return admin, nil
	}
	return nil, apperr.ErrUnauthorized
}
