package server

import (
	"fmt"
	"net/http"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.auth.Register(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	claims, err := s.auth.Validate(pair.AccessToken)
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Merge the guest cart into the customer's cart and rotate the cart
	// session cookie to the customer-scoped key.
	guestSession := cartSessionFrom(c)
	userSession := userCartSession(claims.Subject)
	if guestSession != "" && guestSession != userSession {
		if _, err := s.carts.Merge(c.Request.Context(), guestSession, userSession); err != nil {
			s.logger.Warn("Cart merge on login failed",
				zap.String("guest_session", guestSession), zap.Error(err))
		}
	}
	c.SetCookie(cartSessionCookie, userSession, 86400, "/", "", false, true)

	s.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (s *Server) refresh(c *gin.Context) {
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || token == "" {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
			return
		}
		token = req.RefreshToken
	}

	pair, err := s.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (s *Server) me(c *gin.Context) {
	claims := claimsFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"id":    claims.Subject,
		"email": claims.Email,
		"role":  claims.Role,
	})
}

func (s *Server) setTokenCookies(c *gin.Context, pair *service.TokenPair) {
	c.SetCookie(accessTokenCookie, pair.AccessToken, 3600, "/", "", false, true)
	c.SetCookie(refreshTokenCookie, pair.RefreshToken, 7*86400, "/", "", false, true)
}

// userCartSession is the cart key namespace for an authenticated user.
func userCartSession(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}
