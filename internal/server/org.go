package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/ledgerly/internal/organization/domain"
)

type createOrganizationRequest struct {
	OwnerID      string `json:"owner_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	CountryCode  string `json:"country_code"`
	TimezoneName string `json:"timezone_name"`
}

func (s *Server) createOrganization(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ownerID, err := snowflake.ParseString(strings.TrimSpace(req.OwnerID))
	if err != nil {
		AbortWithError(c, organizationdomain.ErrInvalidUser)
		return
	}

	resp, err := s.organizationSvc.Create(c.Request.Context(), ownerID, organizationdomain.CreateOrganizationRequest{
		Name:         req.Name,
		CountryCode:  req.CountryCode,
		TimezoneName: req.TimezoneName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) getOrganization(c *gin.Context) {
	resp, err := s.organizationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

func (s *Server) addOrganizationMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.organizationSvc.AddMember(c.Request.Context(), c.Param("id"), organizationdomain.AddMemberRequest{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

func (s *Server) removeOrganizationMember(c *gin.Context) {
	err := s.organizationSvc.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
