package notes

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"corvex/storage"
	ws "corvex/websocket"
)

type recorder struct {
	mu       sync.Mutex
	messages []*ws.ServiceMessage
}

func (r *recorder) WriteJSON(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, v.(*ws.ServiceMessage))
	return nil
}

func (r *recorder) last(t *testing.T) *ws.ServiceMessage {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.messages)
	return r.messages[len(r.messages)-1]
}

func newTestService(t *testing.T) (*NotesService, *recorder, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "data")
	store := storage.NewStore(storage.NewLocator(root), nil, zaptest.NewLogger(t))

	rec := &recorder{}
	s := NewService(store, zaptest.NewLogger(t).Sugar())
	s.Register(rec)
	return s, rec, root
}

// send handles one message and returns the reply.
func send(t *testing.T, s *NotesService, rec *recorder, id, action, data string) *ws.ServiceMessage {
	t.Helper()
	var raw json.RawMessage
	if data != "" {
		raw = json.RawMessage(data)
	}
	s.HandleTextMessage(id, action, raw)

	msg := rec.last(t)
	assert.Equal(t, "notes", msg.Service)
	assert.Equal(t, id, msg.Id)
	assert.Equal(t, action, msg.Action)
	return msg
}

func TestNotesService_Name(t *testing.T) {
	assert.Equal(t, "notes", NewService(nil, nil).Name())
}

func TestNotesService_Session(t *testing.T) {
	s, rec, root := newTestService(t)

	msg := send(t, s, rec, "1", actionStorageDirectory, "")
	require.Empty(t, msg.Error)
	var dir storageDirectoryData
	require.NoError(t, json.Unmarshal(msg.Data, &dir))
	assert.Equal(t, root, dir.Path)
	assert.Equal(t, storage.DefaultExtensions, dir.Extensions)

	msg = send(t, s, rec, "2", actionCreateFolder, `{"id":"notes"}`)
	require.Empty(t, msg.Error)
	assert.JSONEq(t, `{"id":"notes","name":"notes","files":[],"subfolders":[]}`, string(msg.Data))

	msg = send(t, s, rec, "3", actionCreateFile, `{"id":"notes/a.md"}`)
	require.Empty(t, msg.Error)
	assert.JSONEq(t, `{"id":"notes/a.md","name":"a.md"}`, string(msg.Data))

	msg = send(t, s, rec, "4", actionSaveContent, `{"id":"notes/a.md","content":"# Title"}`)
	require.Empty(t, msg.Error)

	msg = send(t, s, rec, "5", actionGetContent, `{"id":"notes/a.md"}`)
	require.Empty(t, msg.Error)
	assert.JSONEq(t, `{"id":"notes/a.md","content":"# Title"}`, string(msg.Data))

	msg = send(t, s, rec, "6", actionModifyFile, `{"oldId":"notes/a.md","newId":"notes/b.md"}`)
	require.Empty(t, msg.Error)
	assert.JSONEq(t, `{"id":"notes/b.md","name":"b.md"}`, string(msg.Data))

	msg = send(t, s, rec, "7", actionCreateFolder, `{"id":"archive"}`)
	require.Empty(t, msg.Error)

	msg = send(t, s, rec, "8", actionMoveFile, `{"id":"notes/b.md","destination":"archive"}`)
	require.Empty(t, msg.Error)
	assert.JSONEq(t, `{"id":"archive/b.md","name":"b.md"}`, string(msg.Data))

	msg = send(t, s, rec, "9", actionMoveFolder, `{"id":"notes","destination":"archive"}`)
	require.Empty(t, msg.Error)
	assert.JSONEq(t, `{"id":"archive/notes","name":"notes","files":[],"subfolders":[]}`, string(msg.Data))

	msg = send(t, s, rec, "10", actionModifyFolder, `{"oldId":"archive","newId":"old"}`)
	require.Empty(t, msg.Error)
	var folder storage.Folder
	require.NoError(t, json.Unmarshal(msg.Data, &folder))
	assert.Equal(t, "old", folder.ID)
	require.Len(t, folder.Files, 1)
	assert.Equal(t, "old/b.md", folder.Files[0].ID)

	msg = send(t, s, rec, "11", actionListAll, "")
	require.Empty(t, msg.Error)
	require.NoError(t, json.Unmarshal(msg.Data, &folder))
	assert.Equal(t, "", folder.ID)
	require.Len(t, folder.Subfolders, 1)
	assert.Equal(t, "old", folder.Subfolders[0].ID)

	msg = send(t, s, rec, "12", actionDeleteFile, `{"id":"old/b.md"}`)
	require.Empty(t, msg.Error)
	assert.JSONEq(t, `{"id":"old/b.md"}`, string(msg.Data))

	msg = send(t, s, rec, "13", actionDeleteFolder, `{"id":"old"}`)
	require.Empty(t, msg.Error)

	msg = send(t, s, rec, "14", actionListAll, "")
	assert.JSONEq(t, `{"id":"","name":"","files":[],"subfolders":[]}`, string(msg.Data))
}

func TestNotesService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		setup  []string
		action string
		data   string
		kind   string
	}{
		{"create existing", []string{"a.md"}, actionCreateFile, `{"id":"a.md"}`, "AlreadyExists"},
		{"create bad extension", nil, actionCreateFile, `{"id":"a.txt"}`, "InvalidExtension"},
		{"rename missing", nil, actionModifyFile, `{"oldId":"a.md","newId":"b.md"}`, "NotFound"},
		{"rename bad extension", []string{"a.md"}, actionModifyFile, `{"oldId":"a.md","newId":"a.pdf"}`, "InvalidExtension"},
		{"read missing", nil, actionGetContent, `{"id":"nope.md"}`, "NotFound"},
		{"save missing", nil, actionSaveContent, `{"id":"nope.md","content":"x"}`, "NotFound"},
		{"escape", nil, actionGetContent, `{"id":"../etc/passwd"}`, "PathEscapesRoot"},
		{"delete missing folder", nil, actionDeleteFolder, `{"id":"gone"}`, "NotFound"},
		{"unknown action", nil, "format_disk", `{}`, kindInvalidRequest},
		{"missing data", nil, actionCreateFile, "", kindInvalidRequest},
		{"malformed data", nil, actionCreateFile, `{"id":`, kindInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, rec, _ := newTestService(t)
			for _, id := range tc.setup {
				_, err := s.store.CreateFile(id)
				require.NoError(t, err)
			}

			msg := send(t, s, rec, "req", tc.action, tc.data)
			assert.NotEmpty(t, msg.Error)
			assert.Equal(t, tc.kind, msg.Kind)
			assert.Empty(t, msg.Data)
		})
	}
}

func TestNotesService_ReadInvalidEncoding(t *testing.T) {
	s, rec, root := newTestService(t)
	_, err := s.store.CreateFile("latin.md")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "latin.md"), []byte{'c', 'a', 'f', 0xe9}, 0o644))

	msg := send(t, s, rec, "enc", actionGetContent, `{"id":"latin.md"}`)
	assert.Equal(t, "EncodingError", msg.Kind)
}

type mockNotes struct {
	mock.Mock
	storage.Notes
}

func (m *mockNotes) Root() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockNotes) RenameFolder(oldID, newID string) (storage.Folder, error) {
	args := m.Called(oldID, newID)
	return args.Get(0).(storage.Folder), args.Error(1)
}

func TestNotesService_StoreFailures(t *testing.T) {
	m := new(mockNotes)
	m.On("Root").Return("", storage.ErrStorageUnavailable)
	m.On("RenameFolder", "a", "b").Return(storage.Folder{}, &storage.CommittedError{
		Op:  "rename folder",
		ID:  "b",
		Err: errors.New("permission denied"),
	})

	rec := &recorder{}
	s := NewService(m, nil)
	s.Register(rec)

	msg := send(t, s, rec, "1", actionStorageDirectory, "")
	assert.Equal(t, "StorageUnavailable", msg.Kind)

	msg = send(t, s, rec, "2", actionModifyFolder, `{"oldId":"a","newId":"b"}`)
	assert.Equal(t, "Committed", msg.Kind)
	assert.Contains(t, msg.Error, "permission denied")

	m.AssertExpectations(t)
}
