package handler

import (
	"fmt"
	"net/http"

	"edupulse/internal/middleware"
	"edupulse/internal/repository"
	"edupulse/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	uploads     cloudinary.Client
}

func NewMeHandler(userRepo *repository.UserRepository, profileRepo *repository.ProfileRepository, uploads cloudinary.Client) *MeHandler {
	return &MeHandler{userRepo: userRepo, profileRepo: profileRepo, uploads: uploads}
}

func (h *MeHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *MeHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		FullName      string `json:"full_name"`
		ContactNumber string `json:"contact_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if req.FullName != "" {
		user.FullName = req.FullName
		if err := h.userRepo.Update(user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	if req.ContactNumber != "" {
		profile, err := h.profileRepo.GetByUserID(userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		profile.ContactNumber = req.ContactNumber
		if err := h.profileRepo.Update(profile); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// UploadAvatar accepts a multipart image and stores it on Cloudinary.
func (h *MeHandler) UploadAvatar(c *gin.Context) {
	userID := middleware.GetUserID(c)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	url, err := h.uploads.UploadImage(c.Request.Context(), file, "avatars", fmt.Sprintf("user_%d", userID))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}

	profile, err := h.profileRepo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	profile.AvatarURL = url
	if err := h.profileRepo.Update(profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
