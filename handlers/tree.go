package handlers

import (
	"net/http"
	"strconv"

	"sitedocs/utils"

	"github.com/gin-gonic/gin"
)

// GetTree returns the full attachment tree for an entity as one
// snapshot of the flat folder and file collections.
func GetTree(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}

	snapshot, err := getServices().Tree.GetSnapshot(c.Request.Context(), entity)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, snapshot)
}

// ListChildren returns the direct children of one folder. folder_id 0
// lists the root level.
func ListChildren(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}
	folderID, err := strconv.ParseUint(c.DefaultQuery("folder_id", "0"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid folder id")
		return
	}

	folders, files, err := getServices().Tree.ListChildren(c.Request.Context(), entity, uint(folderID))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{
		"folders": folders,
		"files":   files,
	})
}

// WatchTree streams tree snapshots over server-sent events: one
// immediately, then one after every change, until the client goes away.
func WatchTree(c *gin.Context) {
	entity, ok := entityFromPath(c)
	if !ok {
		return
	}

	snapshots, stop, err := getServices().Tree.WatchTree(c.Request.Context(), entity)
	if respondServiceError(c, err) {
		return
	}
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case snapshot, open := <-snapshots:
			if !open {
				return
			}
			c.SSEvent("tree", snapshot)
			c.Writer.Flush()
		}
	}
}
