package services

import (
	"path/filepath"
	"strconv"
	"strings"

	"sitedocs/models"
)

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer("..", "_", "/", "_", "\\", "_")
	return replacer.Replace(name)
}

// fileType returns the lower-cased extension without the leading dot.
func fileType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return strings.TrimPrefix(ext, ".")
}

// folderKey renders a folder id for storage paths. The root sentinel keeps
// the literal "root" segment for backend compatibility.
func folderKey(folderID uint) string {
	if folderID == models.RootFolderID {
		return "root"
	}
	return strconv.FormatUint(uint64(folderID), 10)
}

// BuildStoragePath derives the deterministic blob key for a file:
// {entityCollection}/{entityID}/{folderKey}/{fileName}.
func BuildStoragePath(entity models.EntityRef, folderID uint, fileName string) string {
	return entity.Type.CollectionName() + "/" + entity.ID + "/" + folderKey(folderID) + "/" + sanitizeFileName(fileName)
}

// BuildThumbStoragePath derives the blob key for an image attachment's
// thumbnail.
func BuildThumbStoragePath(entity models.EntityRef, folderID uint, fileName string) string {
	return entity.Type.CollectionName() + "/" + entity.ID + "/thumbs/" + folderKey(folderID) + "/" + sanitizeFileName(fileName) + ".jpg"
}

func mimeTypeByExt(ext string) string {
	mimeTypes := map[string]string{
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"png":  "image/png",
		"gif":  "image/gif",
		"bmp":  "image/bmp",
		"webp": "image/webp",
		"pdf":  "application/pdf",
		"txt":  "text/plain",
		"csv":  "text/csv",
		"mp4":  "video/mp4",
		"mp3":  "audio/mpeg",
		"zip":  "application/zip",
		"doc":  "application/msword",
		"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"xls":  "application/vnd.ms-excel",
		"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	if mt, ok := mimeTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return mt
	}
	return "application/octet-stream"
}
