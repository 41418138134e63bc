package model

// Folder groups journals. Folders can nest through ParentID, although the
// client only renders one level.
type Folder struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parentId"`
}

// FolderInput is the data accepted when creating a folder. Ownership comes
// from the authenticated caller, never from the payload.
type FolderInput struct {
	Name     string
	ParentID *int64
}
