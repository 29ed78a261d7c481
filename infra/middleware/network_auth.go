package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenBlacklist tracks revoked token ids in Redis.
type TokenBlacklist struct {
	redis  *redis.Client
	prefix string
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	if client == nil {
		logger.Warn("Redis client not provided, token blacklist disabled")
		return nil
	}
	return &TokenBlacklist{
		redis:  client,
		prefix: "token:blacklist:",
	}
}

// Revoke blacklists a token id until it would have expired anyway.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiry time.Duration) error {
	if b == nil {
		return nil
	}
	return b.redis.Set(ctx, b.prefix+tokenID, "1", expiry).Err()
}

// IsRevoked fails open: a Redis outage does not lock every user out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) bool {
	if b == nil {
		return false
	}
	exists, err := b.redis.Exists(ctx, b.prefix+tokenID).Result()
	if err != nil {
		logger.WithError(err).Warn("token blacklist lookup failed")
		return false
	}
	return exists > 0
}

// JWTAuth validates HS256 bearer tokens and stores the subject as user_id.
func JWTAuth(secret string, blacklist *TokenBlacklist) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return apperr.Unauthorized("missing authorization")
		}

		claims, err := parseClaims(tokenString, secret)
		if err != nil {
			logger.WithError(err).Warn("JWT validation failed")
			if errors.Is(err, jwt.ErrTokenExpired) {
				return apperr.TokenExpired()
			}
			return apperr.InvalidToken("invalid token")
		}

		if jti, ok := claims["jti"].(string); ok && jti != "" {
			if blacklist.IsRevoked(c.Context(), jti) {
				return apperr.InvalidToken("token has been revoked")
			}
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return apperr.InvalidToken("invalid user id in token")
		}

		c.Locals("user_id", userID)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// RequireRole admits tokens whose "role" claim is one of roles. It must run
// after JWTAuth.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		claims, _ := c.Locals("claims").(jwt.MapClaims)
		role, _ := claims["role"].(string)
		if !allowed[role] {
			return apperr.Forbidden("insufficient role")
		}
		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseClaims(tokenString, secret string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(time.Minute))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}
