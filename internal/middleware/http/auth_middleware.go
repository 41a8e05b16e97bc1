package http

import (
	"errors"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/internal/service"
	"marketplace_refunds/pkg/jwt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuthMiddleware defines the function signature for our authentication middleware.
type AuthMiddleware func(http.Handler) http.Handler

// TokenParser validates a bearer token and returns its payload. *jwt.Manager satisfies it.
type TokenParser interface {
	Parse(tokenString string) (map[string]interface{}, error)
}

// NewAuthMiddleware creates a middleware that reads the operator from the bearer token.
// The payload must carry user_id (hex ObjectID); name and email are optional.
func NewAuthMiddleware(parser TokenParser, logger *zap.Logger) AuthMiddleware {
	log := logger.Named("AuthMiddleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: missing bearer token")
				return
			}

			payload, err := parser.Parse(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: token expired")
				case errors.Is(err, jwt.ErrTokenNotValidYet):
					service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: token not valid yet")
				default:
					log.Debug("rejected bearer token", zap.Error(err))
					service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: invalid token")
				}
				return
			}

			user, err := operatorFromPayload(payload)
			if err != nil {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithOperator(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func operatorFromPayload(payload map[string]interface{}) (*models.User, error) {
	rawID, _ := payload["user_id"].(string)
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return nil, errors.New("token has no valid user_id")
	}
	name, _ := payload["name"].(string)
	email, _ := payload["email"].(string)
	return &models.User{UserId: id, Name: name, Email: email}, nil
}
