package handlers

import (
	"log"
	"net/http"
	"photovote/apperr"
	"photovote/auth"
	"photovote/photos"
	"photovote/settings"
	"photovote/storage"
	"photovote/voting"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Error string `json:"error"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

var (
	// Predefined errors
	InvalidJSONResponse = Response{"Invalid JSON"}
)

// Handlers holds the services the HTTP end-points translate to
type Handlers struct {
	Votes    *voting.Service
	View     *voting.View
	Settings settings.Gate
	Photos   *photos.Service
	Gallery  *photos.Gallery
	Storage  storage.StorageAPI
	Identity auth.Identity
}

func errorResponse(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, Response{Error: apperr.Message(err)})
}

// queryInt returns def if the parameter is missing or not a number
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) VoterNew(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"voter_key": auth.NewVoterKey()})
}
