package handlers

import (
	"io"
	"net/http"
	"strconv"

	"sitedocs/services"
	"sitedocs/utils"

	"github.com/gin-gonic/gin"
)

type RenameFileRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// UploadFiles accepts a multipart batch under the "files" field and
// transfers it into the folder given by the folder_id form value.
// Oversized files are filtered out up front; the response reports a
// per-file outcome for everything that was attempted.
func UploadFiles(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	folderID, err := strconv.ParseUint(c.DefaultPostForm("folder_id", "0"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid folder id")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		utils.Error(c, http.StatusBadRequest, "no files in request")
		return
	}

	incoming := make([]services.IncomingFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		incoming = append(incoming, services.IncomingFile{
			Name: header.Filename,
			Size: header.Size,
			Data: data,
		})
	}

	svc := getServices().Upload
	incoming = svc.FilterOversized(incoming)
	if len(incoming) == 0 {
		utils.Success(c, gin.H{"outcomes": []services.UploadOutcome{}})
		return
	}

	outcomes, svcErr := svc.UploadBatch(c.Request.Context(), entity, callerIdentity(c), uint(folderID), incoming)
	if respondServiceError(c, svcErr) {
		return
	}
	utils.Success(c, gin.H{"outcomes": outcomes})
}

func GetUploadProgress(c *gin.Context) {
	percent, status, err := getServices().Upload.Progress(c.Request.Context(), c.Param("upload_id"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{
		"upload_id": c.Param("upload_id"),
		"percent":   percent,
		"status":    status,
	})
}

func CancelUpload(c *gin.Context) {
	err := getServices().Upload.Cancel(c.Request.Context(), c.Param("upload_id"))
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "upload canceled", nil)
}

func DownloadFile(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	fileID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid file id")
		return
	}

	rc, file, svcErr := getServices().Archive.DownloadFile(c.Request.Context(), entity, uint(fileID))
	if respondServiceError(c, svcErr) {
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Header("Content-Type", "application/octet-stream")
	if file.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		// Headers are already out; nothing to send but the error record.
		_ = c.Error(err)
	}
}

func RenameFile(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	fileID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid file id")
		return
	}

	var req RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	file, svcErr := getServices().File.RenameFile(c.Request.Context(), entity, c.GetString("user_id"), uint(fileID), req.Name)
	if respondServiceError(c, svcErr) {
		return
	}
	utils.Success(c, file)
}

func DeleteFile(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	fileID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid file id")
		return
	}

	svcErr := getServices().Delete.DeleteFile(c.Request.Context(), entity, c.GetString("user_id"), uint(fileID))
	if respondServiceError(c, svcErr) {
		return
	}
	utils.SuccessWithMessage(c, "file deleted", nil)
}
