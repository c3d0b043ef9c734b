package handlers

import (
	"net/http"

	"sitedocs/models"
	"sitedocs/services"
	"sitedocs/utils"

	"github.com/gin-gonic/gin"
)

var appServices *services.Container

func SetServices(container *services.Container) {
	appServices = container
}

func getServices() *services.Container {
	if appServices == nil {
		panic("services container is not initialized")
	}
	return appServices
}

func respondServiceError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*services.AppError); ok {
		if appErr.Data != nil {
			utils.ErrorWithData(c, appErr.HTTPCode, appErr.Message, appErr.Data)
		} else {
			utils.Error(c, appErr.HTTPCode, appErr.Message)
		}
		return true
	}
	utils.Error(c, http.StatusInternalServerError, "internal error")
	return true
}

// entityFromPath resolves the :entityType/:entityID route segments.
func entityFromPath(c *gin.Context) (models.EntityRef, bool) {
	entityType, err := models.ParseEntityType(c.Param("entityType"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "unknown entity type")
		return models.EntityRef{}, false
	}
	entityID := c.Param("entityID")
	if entityID == "" {
		utils.Error(c, http.StatusBadRequest, "missing entity id")
		return models.EntityRef{}, false
	}
	return models.EntityRef{Type: entityType, ID: entityID}, true
}

func callerIdentity(c *gin.Context) services.Identity {
	return services.Identity{UserID: c.GetString("user_id")}
}
