package file

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hamrotask/middleware"
	"hamrotask/services"
)

func FileController(router *gin.Engine, db *gorm.DB) {
	routes := router.Group("/file", middleware.AccessTokenMiddleware())
	{
		routes.POST("/upload", func(c *gin.Context) {
			Upload(c, db)
		})
		routes.GET("/:file_id", func(c *gin.Context) {
			Download(c, db)
		})
		routes.DELETE("/:file_id", func(c *gin.Context) {
			Delete(c, db)
		})
	}
}

// Upload stores a standalone file (avatars and the like) and returns
// its id for linking.
func Upload(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "Missing file"})
		return
	}

	record, err := services.SaveFile(db, userID, header)
	if err != nil {
		if errors.Is(err, services.ErrFileTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the upload limit"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to save file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded successfully",
		"file":    record,
	})
}

// Download streams the blob back under its original filename.
func Download(c *gin.Context, db *gorm.DB) {
	fileID := c.Param("file_id")

	record, err := services.GetFile(db, fileID)
	if err != nil {
		c.JSON(404, gin.H{"error": "File not found"})
		return
	}

	c.Header("Content-Type", record.ContentType)
	c.FileAttachment(services.FilePath(record), record.Name)
}

// Delete removes an owned file, blob and row both.
func Delete(c *gin.Context, db *gorm.DB) {
	userID := c.MustGet("userId").(string)
	fileID := c.Param("file_id")

	record, err := services.GetFile(db, fileID)
	if err != nil {
		c.JSON(404, gin.H{"error": "File not found"})
		return
	}
	if record.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own files"})
		return
	}

	if err := services.DeleteFile(db, record); err != nil {
		c.JSON(500, gin.H{"error": "Failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
