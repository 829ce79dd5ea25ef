package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benoitkugler/okink/inkpath"
	"github.com/benoitkugler/okink/inkpdf"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Time allowed to write a message to the peer.
const writeWait = 10 * time.Second

// Message types exchanged on the WebSocket.
const (
	TypeSavePDF    = "save_pdf"
	TypeSaved      = "saved"
	TypeListFolder = "list_folder"
	TypeFolder     = "folder"
	TypeLoadImages = "load_images"
	TypeImages     = "images"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// WSMessage is the WebSocket message envelope. Replies
// carry the ID of the message they answer.
type WSMessage struct {
	Type      string      `json:"type"`
	ID        string      `json:"id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// incoming message, whose data depends on the type
type wsRequest struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// SavePDFData is the payload of a save_pdf message.
type SavePDFData struct {
	SavePath string          `json:"save_path"`
	Request  inkpath.Request `json:"request"`
}

// SavedData is the payload of a saved reply.
type SavedData struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
}

// ListFolderData is the payload of a list_folder message.
type ListFolderData struct {
	Path      string `json:"path"`
	Extension string `json:"extension,omitempty"`
}

// LoadImagesData is the payload of a load_images message.
type LoadImagesData struct {
	Paths []string `json:"paths"`
}

// errReply is returned by message handlers to send an error reply
type errReply struct {
	code string
	err  error
}

func (e errReply) Error() string { return e.err.Error() }

func invalidData(err error) error {
	return errReply{code: "invalid_message", err: fmt.Errorf("invalid message data: %w", err)}
}

// handleWebSocket serves one client. Messages are
// processed in order, each one receiving exactly one reply.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("[ws] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.config.MaxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logf("[ws] Read error: %v", err)
			}
			return
		}

		reply := s.dispatch(data)
		reply.Timestamp = time.Now().UTC().Format(time.RFC3339)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			s.logf("[ws] Write error: %v", err)
			return
		}
	}
}

// dispatch decodes one message and computes its reply.
func (s *Server) dispatch(data []byte) WSMessage {
	var msg wsRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorMessage("", "invalid_message", fmt.Errorf("invalid message: %w", err))
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	var (
		replyType string
		payload   interface{}
		err       error
	)
	switch msg.Type {
	case TypePing:
		replyType = TypePong
	case TypeSavePDF:
		replyType = TypeSaved
		payload, err = s.savePDF(msg.Data)
	case TypeListFolder:
		replyType = TypeFolder
		payload, err = listFolder(msg.Data)
	case TypeLoadImages:
		replyType = TypeImages
		payload, err = loadImages(msg.Data)
	default:
		err = errReply{code: "unknown_type", err: fmt.Errorf("unknown message type %q", msg.Type)}
	}

	if err != nil {
		var er errReply
		if errors.As(err, &er) {
			return errorMessage(msg.ID, er.code, er.err)
		}
		_, code := classify(err)
		return errorMessage(msg.ID, code, err)
	}
	return WSMessage{Type: replyType, ID: msg.ID, Data: payload}
}

func errorMessage(id, code string, err error) WSMessage {
	return WSMessage{Type: TypeError, ID: id, Data: APIError{Code: code, Message: err.Error()}}
}

func (s *Server) savePDF(data json.RawMessage) (SavedData, error) {
	var args SavePDFData
	if err := json.Unmarshal(data, &args); err != nil {
		return SavedData{}, invalidData(err)
	}
	if args.SavePath == "" {
		return SavedData{}, errReply{code: "invalid_message", err: errors.New("missing save path")}
	}
	report, err := inkpdf.RenderToFile(&args.Request, args.SavePath, s.options.PDF)
	if err != nil {
		return SavedData{}, err
	}
	s.logf("[ws] Saved %d pages to %s", len(report.Pages), args.SavePath)
	return SavedData{Path: args.SavePath, Pages: len(report.Pages)}, nil
}

func listFolder(data json.RawMessage) ([]inkpath.FolderEntry, error) {
	var args ListFolderData
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, invalidData(err)
	}
	entries, err := inkpath.ListFolder(args.Path, args.Extension)
	if err != nil {
		return nil, errReply{code: "invalid_path", err: err}
	}
	if entries == nil {
		entries = []inkpath.FolderEntry{}
	}
	return entries, nil
}

func loadImages(data json.RawMessage) (*inkpath.Request, error) {
	var args LoadImagesData
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, invalidData(err)
	}
	return inkpath.LoadImages(args.Paths)
}
