package storage

// FileEntry is a leaf of the storage tree.
type FileEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder is a point-in-time snapshot of one directory and everything below it.
// The root folder has an empty ID and Name.
type Folder struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Files      []FileEntry `json:"files"`
	Subfolders []Folder    `json:"subfolders"`
}

// Count returns the number of files and folders below f, f itself excluded.
func (f Folder) Count() (files, folders int) {
	files = len(f.Files)
	for _, sub := range f.Subfolders {
		subFiles, subFolders := sub.Count()
		files += subFiles
		folders += subFolders + 1
	}
	return files, folders
}

// Notes defines the command surface of the note storage.
// Store is the filesystem implementation.
type Notes interface {
	Root() (string, error)

	// Extensions returns the file extensions files may carry.
	Extensions() []string

	CreateFile(id string) (FileEntry, error)

	// RenameFile renames or moves a file. newID may point into another folder.
	RenameFile(oldID, newID string) (FileEntry, error)

	// MoveFile moves a file into destFolderID keeping its name.
	MoveFile(id, destFolderID string) (FileEntry, error)

	DeleteFile(id string) error

	ReadFile(id string) (string, error)

	// WriteFile overwrites an existing file. It never creates one.
	WriteFile(id, content string) error

	CreateFolder(id string) (Folder, error)

	RenameFolder(oldID, newID string) (Folder, error)

	MoveFolder(id, destFolderID string) (Folder, error)

	DeleteFolder(id string) error

	// ListAll returns the tree rooted at the storage root.
	ListAll() (Folder, error)
}
