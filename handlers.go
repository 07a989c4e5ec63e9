package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cpsportal/catalog_backend/config"
	"github.com/cpsportal/catalog_backend/models"
	"github.com/cpsportal/catalog_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    utils.ToJSONSafe(data),
	})
}

func respondFailure(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

// respondServerError logs full diagnostics server-side; the caller only
// sees the error text.
func respondServerError(c *gin.Context, funcName string, data interface{}, err error) {
	_ = c.Error(err)
	config.LogError(config.GetLogger(), "handlers", funcName, "request failed", data, err)
	respondFailure(c, http.StatusInternalServerError, err.Error())
}

func queryBool(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}

func catalogFilterFromQuery(c *gin.Context) models.CatalogFilter {
	return models.CatalogFilter{
		ValidatedOnly: queryBool(c, "validated_only"),
		SearchTerm:    c.Query("search_term"),
		Vendor:        c.Query("vendor"),
		Category:      c.Query("category"),
	}
}

func catalogHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		devices, err := repo.GetEffectiveCatalog(c.Request.Context(), catalogFilterFromQuery(c))
		if err != nil {
			respondServerError(c, "catalogHandler", c.Request.URL.RawQuery, err)
			return
		}
		respondData(c, devices)
	}
}

func catalogGroupsHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := repo.GetGroupsByCpsId(c.Request.Context(), catalogFilterFromQuery(c))
		if err != nil {
			respondServerError(c, "catalogGroupsHandler", c.Request.URL.RawQuery, err)
			return
		}
		respondData(c, groups)
	}
}

func deviceHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceUUID := c.Param("device_uuid")
		device, err := repo.GetDeviceByUUID(c.Request.Context(), deviceUUID, queryBool(c, "validated_only"))
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				respondFailure(c, http.StatusNotFound, "Device not found")
				return
			}
			respondServerError(c, "deviceHandler", deviceUUID, err)
			return
		}
		respondData(c, device)
	}
}

func deviceOverridesHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceUUID := c.Param("device_uuid")
		overrides, err := repo.GetDeviceOverrides(c.Request.Context(), deviceUUID)
		if err != nil {
			respondServerError(c, "deviceOverridesHandler", deviceUUID, err)
			return
		}
		respondData(c, overrides)
	}
}

func cpsVariantsHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cpsId := c.Param("cps_id")
		items, diffFields, err := repo.GetCpsVariants(c.Request.Context(), cpsId, queryBool(c, "validated_only"))
		if err != nil {
			respondServerError(c, "cpsVariantsHandler", cpsId, err)
			return
		}
		respondData(c, gin.H{
			"items":       items,
			"diff_fields": diffFields,
		})
	}
}

func commitOverrideHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewFieldOverride
		if err := c.ShouldBindJSON(&input); err != nil {
			var bindErrs validator.ValidationErrors
			if errors.As(err, &bindErrs) {
				respondFailure(c, http.StatusBadRequest,
					fmt.Sprintf("invalid request: %v", utils.ProcessValidationErrors(bindErrs)))
				return
			}
			respondFailure(c, http.StatusBadRequest, err.Error())
			return
		}

		// The frontend sends placeholder editor fields; the session
		// identity resolved by IdentityMiddleware wins over those.
		ctx := c.Request.Context()
		if input.EditorUserId == "" || input.EditorUserId == "current_user" {
			input.EditorUserId, _ = utils.GetUserIdFromContext(ctx)
		}
		if input.EditorUserName == "" || input.EditorUserName == "Current User" {
			input.EditorUserName, _ = utils.GetUserNameFromContext(ctx)
		}

		override, err := repo.CommitFieldOverride(ctx, &input)
		if err != nil {
			var vErr *models.ValidationError
			switch {
			case errors.As(err, &vErr):
				respondFailure(c, http.StatusBadRequest, vErr.Reason)
			case errors.Is(err, utils.ErrorRecordNotFound):
				respondFailure(c, http.StatusNotFound, err.Error())
			default:
				respondServerError(c, "commitOverrideHandler", input, err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "Override committed",
			"override_id": override.ID,
		})
	}
}

func statsHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repo.GetStats(c.Request.Context())
		if err != nil {
			respondServerError(c, "statsHandler", nil, err)
			return
		}
		respondData(c, stats)
	}
}

func allChangesHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		changes, err := repo.GetAllChanges(c.Request.Context(), queryInt(c, "limit", 1000))
		if err != nil {
			respondServerError(c, "allChangesHandler", c.Request.URL.RawQuery, err)
			return
		}
		respondData(c, changes)
	}
}

func deviceChangesOverTimeHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceUUID := c.Param("device_uuid")
		counts, err := repo.GetDeviceChangesOverTime(c.Request.Context(), deviceUUID, queryInt(c, "days", 7))
		if err != nil {
			respondServerError(c, "deviceChangesOverTimeHandler", deviceUUID, err)
			return
		}
		respondData(c, counts)
	}
}

func deleteChangeHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		changeId, err := strconv.Atoi(c.Param("change_id"))
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "change_id must be an integer")
			return
		}
		deleted, err := repo.DeleteChange(c.Request.Context(), changeId)
		if err != nil {
			respondServerError(c, "deleteChangeHandler", changeId, err)
			return
		}
		if !deleted {
			respondFailure(c, http.StatusNotFound, "Change not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Change reverted successfully",
		})
	}
}

func schemaHandler(repo *models.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableSchema, err := repo.GetTableSchema()
		if err != nil {
			respondServerError(c, "schemaHandler", nil, err)
			return
		}
		respondData(c, tableSchema)
	}
}
