package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autostore_back_end/internal/models"
	"autostore_back_end/internal/repository"
	"autostore_back_end/internal/utils"
)

var Users *repository.UserRepository

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register crée un compte client.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données d'inscription invalides"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: hash,
		Name:     req.Name,
		IsActive: true,
		Role:     models.RoleClient,
	}
	if err := Users.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	utils.LogAction(c, utils.ActionUserCreate, utils.ResourceUser, user.Email, nil, gin.H{"email": user.Email})
	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	})
}

// Login vérifie les identifiants et renvoie un JWT.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	user, err := Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.VerifyPassword(req.Password, user.Password) {
		utils.LogFailedAction(c, utils.ActionLoginFailed, utils.ResourceAuth, req.Email, "Identifiants invalides")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Compte désactivé"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.LogAction(c, utils.ActionLoginSuccess, utils.ResourceAuth, user.Email, nil, nil)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// Me renvoie le profil de l'utilisateur connecté.
func Me(c *gin.Context) {
	user, err := Users.GetByID(c.Request.Context(), c.GetInt("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
