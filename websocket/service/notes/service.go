package notes

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"corvex/metrics"
	"corvex/storage"
	ws "corvex/websocket"
)

// NotesService exposes storage.Notes over the websocket. Every action
// replies once with the same id, either with data or with error and kind.
type NotesService struct {
	conn  ws.Writer
	store storage.Notes

	*zap.SugaredLogger
}

func NewService(store storage.Notes, logger *zap.SugaredLogger) *NotesService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NotesService{store: store, SugaredLogger: logger}
}

func (s *NotesService) Register(conn ws.Writer) {
	s.conn = conn
}

func (s *NotesService) Name() string {
	return "notes"
}

func (s *NotesService) Cleanup(err error) {
	s.Debugw("cleanup", "reason", err)
}

func (s *NotesService) HandleTextMessage(id, action string, data json.RawMessage) {
	label := action
	if !knownActions[action] {
		label = "unknown"
	}
	timer := metrics.NewTimer("ws", label)

	result, err := s.dispatch(action, data)
	if err != nil {
		kind := errorKind(err)
		timer.Stop(kind)
		s.handleError(id, action, kind, err)
		return
	}
	timer.Stop("")

	s.reply(id, action, result)
}

func (s *NotesService) dispatch(action string, data json.RawMessage) (any, error) {
	switch action {
	case actionStorageDirectory:
		root, err := s.store.Root()
		if err != nil {
			return nil, err
		}
		return storageDirectoryData{Path: root, Extensions: s.store.Extensions()}, nil

	case actionCreateFile:
		var d entryData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return s.store.CreateFile(d.Id)

	case actionModifyFile:
		var d renameData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return s.store.RenameFile(d.OldId, d.NewId)

	case actionMoveFile:
		var d moveData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return s.store.MoveFile(d.Id, d.Destination)

	case actionDeleteFile:
		var d entryData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return d, s.store.DeleteFile(d.Id)

	case actionGetContent:
		var d entryData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		content, err := s.store.ReadFile(d.Id)
		if err != nil {
			return nil, err
		}
		return contentData{Id: d.Id, Content: content}, nil

	case actionSaveContent:
		var d contentData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return entryData{Id: d.Id}, s.store.WriteFile(d.Id, d.Content)

	case actionCreateFolder:
		var d entryData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return s.store.CreateFolder(d.Id)

	case actionModifyFolder:
		var d renameData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return s.store.RenameFolder(d.OldId, d.NewId)

	case actionMoveFolder:
		var d moveData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return s.store.MoveFolder(d.Id, d.Destination)

	case actionDeleteFolder:
		var d entryData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		return d, s.store.DeleteFolder(d.Id)

	case actionListAll:
		tree, err := s.store.ListAll()
		if err != nil {
			return nil, err
		}
		metrics.SetTreeSize(tree.Count())
		return tree, nil
	}

	return nil, &requestError{fmt.Errorf("unknown action %q", action)}
}

func (s *NotesService) reply(id, action string, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.handleError(id, action, storage.Kind(err), err)
		return
	}

	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Data:    payload,
	})
}

func (s *NotesService) handleError(id, action, kind string, err error) {
	s.Warnw(action+" failed", "id", id, "kind", kind, "error", err)

	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   err.Error(),
		Kind:    kind,
	})
}

// requestError marks a message the service could not decode.
type requestError struct{ error }

func (e *requestError) Unwrap() error { return e.error }

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return &requestError{fmt.Errorf("missing data")}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &requestError{fmt.Errorf("invalid data: %w", err)}
	}
	return nil
}

func errorKind(err error) string {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return kindInvalidRequest
	}
	return storage.Kind(err)
}
