package handlers

import (
	"net/http"
	"photovote/auth"
	"photovote/models"
	"photovote/settings"

	"github.com/gin-gonic/gin"
)

type AdminLoginRequest struct {
	Key string `json:"key" form:"key"`
}

type SettingsResponse struct {
	OK       bool            `json:"ok"`
	Settings models.Settings `json:"settings"`
}

func (h *Handlers) SettingsGet(c *gin.Context) {
	current, err := h.Settings.Current(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (h *Handlers) AdminLogin(c *gin.Context) {
	req := AdminLoginRequest{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, InvalidJSONResponse)
		return
	}
	if _, err := auth.VerifyAdminKey(req.Key); err != nil {
		adminError(c, err)
		return
	}
	if err := auth.LoadSession(c).LoginAdmin(); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handlers) AdminLogout(c *gin.Context) {
	auth.LoadSession(c).Logout()
	c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handlers) AdminSettingsGet(c *gin.Context, admin *auth.Admin) {
	current, err := h.Settings.Current(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, SettingsResponse{OK: true, Settings: current})
}

// AdminSettingsPost only changes the flags present in the body
func (h *Handlers) AdminSettingsPost(c *gin.Context, admin *auth.Admin) {
	patch := settings.Patch{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, InvalidJSONResponse)
		return
	}
	current, err := h.Settings.SetFlags(c.Request.Context(), admin, patch)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, SettingsResponse{OK: true, Settings: current})
}

func adminError(c *gin.Context, err error) {
	if err == auth.ErrAdminNotConfigured {
		c.JSON(http.StatusInternalServerError, Response{Error: err.Error()})
		return
	}
	errorResponse(c, err)
}
