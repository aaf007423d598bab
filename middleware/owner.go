package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/loganand612/inspection-server/config"
	"github.com/loganand612/inspection-server/models"
)

// CheckTemplateOwner loads the template into the context and verifies
// the current user owns it.
func CheckTemplateOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := c.MustGet(CtxUser).(models.User)

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid template ID"})
			return
		}

		var t models.Template
		if e := config.DB.First(&t, id).Error; e != nil {
			if errors.Is(e, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Template not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Could not read template"})
			return
		}

		if t.UserID != u.ID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You don't have permission to modify this template"})
			return
		}

		c.Set(CtxTemplate, t)
		c.Next()
	}
}

// CheckTemplateViewer allows the owner and inspectors holding an
// active assignment for the template.
func CheckTemplateViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := c.MustGet(CtxUser).(models.User)

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid template ID"})
			return
		}

		var t models.Template
		if e := config.DB.First(&t, id).Error; e != nil {
			if errors.Is(e, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Template not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Could not read template"})
			return
		}

		if t.UserID != u.ID {
			var count int64
			config.DB.Model(&models.TemplateAssignment{}).
				Where("template_id = ? AND inspector_id = ? AND status IN ?", t.ID, u.ID,
					[]string{models.AssignmentAssigned, models.AssignmentInProgress}).
				Count(&count)
			if count == 0 {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You don't have access to this template"})
				return
			}
		}

		c.Set(CtxTemplate, t)
		c.Next()
	}
}
