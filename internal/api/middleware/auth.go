package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go-shop-api/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	authorizationHeader = "Authorization"
	userCtx             = "userID" // Key to store user ID in context
	shopCtx             = "shopID" // Key to store the caller's shop in context
)

// Claims is the bearer token payload: the user in Subject and the shop they act for.
type Claims struct {
	ShopID string `json:"shop_id"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware creates a Gin middleware for JWT authentication.
func JWTAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	log := logger.Get()
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			log.Debug("Auth middleware: Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			log.Debug("Auth middleware: Invalid Authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			return
		}

		token, err := jwt.ParseWithClaims(headerParts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			log.WithError(err).Info("Auth middleware: Error parsing token")
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			log.Info("Auth middleware: Invalid token claims or token is not valid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.WithField("subject", claims.Subject).Info("Auth middleware: Error parsing user ID from token subject")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user identifier in token"})
			return
		}
		shopID, err := uuid.Parse(claims.ShopID)
		if err != nil {
			log.WithField("shop_id", claims.ShopID).Info("Auth middleware: Error parsing shop ID from token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid shop identifier in token"})
			return
		}

		c.Set(userCtx, userID)
		c.Set(shopCtx, shopID)
		log.WithFields(logrus.Fields{"user_id": userID, "shop_id": shopID}).Debug("Auth middleware: authenticated")
		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated user.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	return uuidFromContext(c, userCtx)
}

// GetShopIDFromContext returns the shop the authenticated user acts for.
func GetShopIDFromContext(c *gin.Context) (uuid.UUID, error) {
	return uuidFromContext(c, shopCtx)
}

func uuidFromContext(c *gin.Context, key string) (uuid.UUID, error) {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil, fmt.Errorf("%s not found in context", key)
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%s in context is of invalid type", key)
	}
	return id, nil
}

// SetIdentity stores the caller identity the way the auth middleware does.
func SetIdentity(c *gin.Context, userID, shopID uuid.UUID) {
	c.Set(userCtx, userID)
	c.Set(shopCtx, shopID)
}
