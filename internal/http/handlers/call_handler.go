// Voice call HTTP handlers.
//
// This file exposes the voice interaction endpoints:
//   - POST /simulate_call   (upload one audio recording, get the agent's reply)
//   - GET  /turns           (list the conversation log, paginated, ETag support)
//   - GET  /audio/{name}    (fetch a synthesized reply recording)
//
// Handlers are transport-thin: multipart parsing and result shaping happen
// here, everything else is delegated to ConversationService.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shamstack/voice-order-backend/internal/domain"
	"github.com/shamstack/voice-order-backend/internal/repo"
	"github.com/shamstack/voice-order-backend/internal/services"
)

// audioFormField is the multipart form field carrying the recording.
const audioFormField = "audio"

// SimulateCallResponse is the JSON envelope for a processed voice turn.
type SimulateCallResponse struct {
	// ResponseText is the agent's localized reply.
	ResponseText string `json:"response_text"`
	// Intent is the classified caller intent.
	Intent string `json:"intent" example:"order"`
	// Language is the language the reply was rendered in.
	Language string `json:"language" example:"ar"`
	// AudioPath points at the synthesized reply under /audio, empty when the
	// turn degraded to text only.
	AudioPath string `json:"audio_path,omitempty" example:"/audio/0b0f7a7e.mp3"`
}

// ListTurnsResponse contains a page of conversation turns and pagination
// metadata.
type ListTurnsResponse struct {
	Turns      []domain.ConversationTurn `json:"turns"`
	Pagination Pagination                `json:"pagination"`
}

// SimulateCall godoc
// @ID          simulateCall
// @Summary     Process one voice interaction
// @Description Accepts an audio recording (multipart field "audio"),
// @Description transcribes it, classifies the caller's intent, and returns a
// @Description localized reply. When text-to-speech succeeds the reply audio
// @Description is available under audio_path; otherwise the turn is text only.
// @Tags        Calls
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       audio  formData  file  true  "Caller recording (wav/mp3/m4a)"
//
// @Success     200  {object}  handlers.SimulateCallResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or unreadable upload"
// @Failure     502  {object}  handlers.ErrorResponse  "Transcription failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /simulate_call [post]
func (h *Handlers) SimulateCall(c *gin.Context) {
	ctx := c.Request.Context()

	fh, err := c.FormFile(audioFormField)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `multipart field "audio" required`)
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read upload")
		return
	}
	defer f.Close()

	res, err := h.convSvc.HandleRecording(ctx, f)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTranscriptionFailed):
			fail(c, http.StatusBadGateway, ErrCodeTranscriptionFailed, "could not transcribe the recording")
		case errors.Is(err, services.ErrUnsupportedLanguage):
			fail(c, http.StatusInternalServerError, ErrCodeUnsupportedLanguage, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	resp := SimulateCallResponse{
		ResponseText: res.ReplyText,
		Intent:       res.Turn.Intent,
		Language:     res.Turn.Language,
	}
	if res.AudioPath != "" {
		resp.AudioPath = "/audio/" + res.AudioPath
	}
	ok(c, http.StatusOK, resp)
}

// ListTurns godoc
// @ID          listTurns
// @Summary     List conversation turns (paginated)
// @Description Returns a page of the conversation log, oldest first. Supports
// @Description weak ETag via If-None-Match and may return 304.
// @Tags        Calls
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListTurnsResponse
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /turns [get]
func (h *Handlers) ListTurns(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.convSvc.(*services.ConversationService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.TurnsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"turns:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.convSvc.ListTurnsPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListTurnsResponse{
		Turns: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// ServeAudio godoc
// @ID          serveAudio
// @Summary     Fetch a synthesized reply recording
// @Description Streams the MP3 produced for a previous turn. File names are
// @Description opaque UUIDs handed out by /simulate_call.
// @Tags        Calls
// @Produce     audio/mpeg
//
// @Param       name  path  string  true  "Audio file name"
//
// @Success     200  {file}    file
// @Failure     400  {object}  handlers.ErrorResponse "Invalid name"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown recording"
// @Router      /audio/{name} [get]
func (h *Handlers) ServeAudio(c *gin.Context) {
	name := c.Param("name")
	// Reject anything that is not a bare file name.
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid audio name")
		return
	}
	path := filepath.Join(h.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown recording")
		return
	}
	c.Header("Content-Type", "audio/mpeg")
	c.File(path)
}
