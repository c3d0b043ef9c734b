package services

import (
	"fmt"

	"sitedocs/models"
)

// Crumb is one breadcrumb entry below the root.
type Crumb struct {
	FolderID uint   `json:"folder_id"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
}

// Breadcrumb is the ordered path from the root to the currently viewed
// folder. The root itself is implicit: an empty breadcrumb means the
// current folder is the root (depth 0).
type Breadcrumb []Crumb

// CurrentFolderID returns the id of the folder the breadcrumb points at.
func (b Breadcrumb) CurrentFolderID() uint {
	if len(b) == 0 {
		return models.RootFolderID
	}
	return b[len(b)-1].FolderID
}

// Depth returns the depth of the current folder; the root is depth 0.
func (b Breadcrumb) Depth() int {
	if len(b) == 0 {
		return 0
	}
	return b[len(b)-1].Depth
}

// Descend appends a child folder to the path.
func (b Breadcrumb) Descend(folderID uint, name string, depth int) Breadcrumb {
	next := make(Breadcrumb, len(b), len(b)+1)
	copy(next, b)
	return append(next, Crumb{FolderID: folderID, Name: name, Depth: depth})
}

// Ascend pops one level; at the root it is a no-op.
func (b Breadcrumb) Ascend() Breadcrumb {
	if len(b) == 0 {
		return b
	}
	next := make(Breadcrumb, len(b)-1)
	copy(next, b[:len(b)-1])
	return next
}

// JumpTo truncates the path to a clicked ancestor. Index 0 is the root;
// index i keeps the first i crumbs.
func (b Breadcrumb) JumpTo(index int) Breadcrumb {
	if index < 0 {
		index = 0
	}
	if index > len(b) {
		index = len(b)
	}
	next := make(Breadcrumb, index)
	copy(next, b[:index])
	return next
}

// CanCreateFolder reports whether a child folder may be created under a
// folder at currentDepth.
func CanCreateFolder(currentDepth int) bool {
	return currentDepth+1 <= models.MaxFolderDepth
}

// TreeSnapshot is one consistent view of the flat folder/file collections
// for an entity, as pushed by the live subscription.
type TreeSnapshot struct {
	Entity  models.EntityRef `json:"entity"`
	Folders []models.Folder  `json:"folders"`
	Files   []models.File    `json:"files"`
}

// ChildrenOf filters the snapshot down to the direct children of a folder.
// Ordering follows the underlying store's insertion order.
func (s TreeSnapshot) ChildrenOf(folderID uint) ([]models.Folder, []models.File) {
	folders := make([]models.Folder, 0)
	for _, f := range s.Folders {
		if f.ParentID == folderID {
			folders = append(folders, f)
		}
	}
	files := make([]models.File, 0)
	for _, f := range s.Files {
		if f.ParentID == folderID {
			files = append(files, f)
		}
	}
	return folders, files
}

// Validate checks the depth invariant and acyclicity of the snapshot:
// every folder's depth is exactly its parent's depth plus one, parent
// chains terminate at the root within MaxFolderDepth steps, and no chain
// revisits a folder. Corrupt data fails loudly instead of hanging a
// traversal.
func (s TreeSnapshot) Validate() error {
	byID := make(map[uint]models.Folder, len(s.Folders))
	for _, f := range s.Folders {
		byID[f.ID] = f
	}

	for _, f := range s.Folders {
		if f.ParentID == models.RootFolderID {
			if f.Depth != 1 {
				return fmt.Errorf("%w: folder %d at root has depth %d", ErrTreeCorrupted, f.ID, f.Depth)
			}
			continue
		}
		parent, ok := byID[f.ParentID]
		if !ok {
			return fmt.Errorf("%w: folder %d references missing parent %d", ErrTreeCorrupted, f.ID, f.ParentID)
		}
		if f.Depth != parent.Depth+1 {
			return fmt.Errorf("%w: folder %d depth %d under parent depth %d", ErrTreeCorrupted, f.ID, f.Depth, parent.Depth)
		}

		seen := map[uint]bool{f.ID: true}
		cur := f
		for steps := 0; cur.ParentID != models.RootFolderID; steps++ {
			if steps > models.MaxFolderDepth {
				return fmt.Errorf("%w: parent chain from folder %d exceeds depth bound", ErrTreeCorrupted, f.ID)
			}
			if seen[cur.ParentID] {
				return fmt.Errorf("%w: cycle through folder %d", ErrTreeCorrupted, cur.ParentID)
			}
			seen[cur.ParentID] = true
			cur = byID[cur.ParentID]
		}
	}
	return nil
}
