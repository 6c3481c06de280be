package notes

const (
	actionStorageDirectory = "get_storage_directory"
	actionCreateFile       = "create_file"
	actionModifyFile       = "modify_file"
	actionMoveFile         = "move_file"
	actionDeleteFile       = "delete_file"
	actionGetContent       = "get_file_content"
	actionSaveContent      = "save_file_content"
	actionCreateFolder     = "create_folder"
	actionModifyFolder     = "modify_folder"
	actionMoveFolder       = "move_folder"
	actionDeleteFolder     = "delete_folder"
	actionListAll          = "list_all_files"

	kindInvalidRequest = "InvalidRequest"
)

var knownActions = map[string]bool{
	actionStorageDirectory: true,
	actionCreateFile:       true,
	actionModifyFile:       true,
	actionMoveFile:         true,
	actionDeleteFile:       true,
	actionGetContent:       true,
	actionSaveContent:      true,
	actionCreateFolder:     true,
	actionModifyFolder:     true,
	actionMoveFolder:       true,
	actionDeleteFolder:     true,
	actionListAll:          true,
}

type entryData struct {
	Id string `json:"id"`
}

type renameData struct {
	OldId string `json:"oldId"`
	NewId string `json:"newId"`
}

type moveData struct {
	Id          string `json:"id"`
	Destination string `json:"destination"`
}

type contentData struct {
	Id      string `json:"id"`
	Content string `json:"content"`
}

type storageDirectoryData struct {
	Path       string   `json:"path"`
	Extensions []string `json:"extensions"`
}
