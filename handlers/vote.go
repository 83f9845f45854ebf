package handlers

import (
	"net/http"
	"photovote/models"
	"photovote/voting"

	"github.com/gin-gonic/gin"
)

type VoteRequest struct {
	PhotoID  string        `json:"photo_id"`
	VoterKey string        `json:"voter_key"`
	Action   voting.Action `json:"action"`
}

type VoteResponse struct {
	OK bool `json:"ok"`
	voting.Result
}

type MyVotesResponse struct {
	Votes []string `json:"votes"`
	Count int      `json:"count"`
	Limit int      `json:"limit"`
}

func (h *Handlers) Vote(c *gin.Context) {
	req := VoteRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, InvalidJSONResponse)
		return
	}
	voterKey, err := h.Identity.VoterKey(c, req.VoterKey)
	if err != nil {
		errorResponse(c, err)
		return
	}
	result, err := h.Votes.Apply(c.Request.Context(), voterKey, req.PhotoID, req.Action)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, VoteResponse{OK: true, Result: result})
}

func (h *Handlers) MyVotes(c *gin.Context) {
	voterKey, err := h.Identity.VoterKey(c, "")
	if err != nil {
		errorResponse(c, err)
		return
	}
	votes, err := h.View.VotesByVoter(c.Request.Context(), voterKey)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, MyVotesResponse{
		Votes: votes,
		Count: len(votes),
		Limit: models.MaxVotesPerVoter,
	})
}
