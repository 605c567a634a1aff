package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ssgb-dev/logbook-api/internal/middleware"
	"github.com/ssgb-dev/logbook-api/internal/models"
	"github.com/ssgb-dev/logbook-api/internal/service"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (service.Actor, error) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return service.Actor{}, appErrors.ErrUnauthorized
	}
	return actor, nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id")
	}
	return id, nil
}

func queryInt(c *gin.Context, key string) *int {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

func queryInt64(c *gin.Context, key string) *int64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &value
}
