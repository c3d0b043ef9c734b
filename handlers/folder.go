package handlers

import (
	"net/http"
	"strconv"

	"sitedocs/utils"

	"github.com/gin-gonic/gin"
)

type CreateFolderRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	ParentID uint   `json:"parent_id"`
}

type RenameFolderRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

func CreateFolder(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, err := getServices().Folder.CreateFolder(c.Request.Context(), entity, c.GetString("user_id"), req.Name, req.ParentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func RenameFolder(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	folderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid folder id")
		return
	}

	var req RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, svcErr := getServices().Folder.RenameFolder(c.Request.Context(), entity, c.GetString("user_id"), uint(folderID), req.Name)
	if respondServiceError(c, svcErr) {
		return
	}
	utils.Success(c, folder)
}

func DeleteFolder(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	folderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid folder id")
		return
	}

	svcErr := getServices().Delete.DeleteFolder(c.Request.Context(), entity, c.GetString("user_id"), uint(folderID))
	if respondServiceError(c, svcErr) {
		return
	}
	utils.SuccessWithMessage(c, "folder deleted", nil)
}

// ExportFolder streams the folder subtree as a zip archive. Folder id 0
// exports the whole tree.
func ExportFolder(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	folderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid folder id")
		return
	}

	archive, name, svcErr := getServices().Archive.ExportFolder(c.Request.Context(), entity, uint(folderID))
	if respondServiceError(c, svcErr) {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/zip", archive)
}
