package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"civease-be/middlewares"
	"civease-be/models"
	"civease-be/services"
)

type authService interface {
	Authenticate(ctx context.Context, email, password string, role models.Role) (models.User, string, error)
	Register(ctx context.Context, input services.RegisterInput) (models.User, error)
	User(ctx context.Context, id string) (models.User, error)
	Users(ctx context.Context, role models.Role) ([]models.User, error)
}

// CookieOptions control the session cookie set on login.
type CookieOptions struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

// AuthController serves login, registration and the user directory.
type AuthController struct {
	auth   authService
	cookie CookieOptions
	log    zerolog.Logger
}

func NewAuthController(auth authService, cookie CookieOptions, logger zerolog.Logger) *AuthController {
	return &AuthController{auth: auth, cookie: cookie, log: logger}
}

// LoginUser checks email, password and role. The token is returned in the
// body and also set as an HttpOnly cookie. Missing fields fail like any other
// mismatch.
func (ac *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, token, err := ac.auth.Authenticate(ctx, input.Email, input.Password, models.Role(input.Role))
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		internalError(c, ac.log, err, "failed to authenticate")
		return
	}

	ac.setAuthCookie(c, token, int(ac.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"user":  user.Public(),
		"token": token,
	})
}

// RegisterUser creates an account. Only authorities keep a department.
func (ac *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		Name       string `json:"name" binding:"required,max=50"`
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required,min=6"`
		Role       string `json:"role" binding:"required,userrole"`
		Department string `json:"department" binding:"max=100"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.auth.Register(ctx, services.RegisterInput{
		Name:       input.Name,
		Email:      input.Email,
		Password:   input.Password,
		Role:       models.Role(input.Role),
		Department: input.Department,
	})
	if errors.Is(err, services.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}
	if err != nil {
		internalError(c, ac.log, err, "failed to register user")
		return
	}

	c.JSON(http.StatusCreated, user.Public())
}

// GetMe returns the authenticated user.
func (ac *AuthController) GetMe(c *gin.Context) {
	userID := c.GetString(middlewares.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.auth.User(ctx, userID)
	if errors.Is(err, services.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		internalError(c, ac.log, err, "failed to get user")
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// LogoutUser clears the session cookie. Tokens held by clients stay valid
// until they expire.
func (ac *AuthController) LogoutUser(c *gin.Context) {
	ac.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetUsers lists users without their passwords, optionally by role.
func (ac *AuthController) GetUsers(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := ac.auth.Users(ctx, models.Role(c.Query("role")))
	if err != nil {
		internalError(c, ac.log, err, "failed to list users")
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	c.JSON(http.StatusOK, public)
}

func (ac *AuthController) setAuthCookie(c *gin.Context, value string, maxAge int) {
	// cross-origin frontends need SameSite=None, which browsers only accept with Secure
	sameSite := http.SameSiteLaxMode
	if ac.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   ac.cookie.Domain,
		Secure:   ac.cookie.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}
