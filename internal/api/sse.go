package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lorealchat/internal/models"
)

// sseView streams turn updates to the browser as server-sent events.
type sseView struct {
	h       *Handler
	w       io.Writer
	flusher http.Flusher
	err     error
}

func (v *sseView) send(event string, payload interface{}) error {
	if v.err != nil {
		return v.err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		v.err = err
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(v.w, "event: %s\n", event); err != nil {
			v.err = err
			return err
		}
	}
	if _, err := fmt.Fprintf(v.w, "data: %s\n\n", data); err != nil {
		v.err = err
		return err
	}
	v.flusher.Flush()
	return nil
}

func (v *sseView) ShowLatestQuestion(text string) {
	_ = v.send("question", gin.H{
		"text": text,
		"html": "<strong>Latest question:</strong> " + renderHTML(text),
	})
}

func (v *sseView) AppendMessage(role models.Role, text string) {
	_ = v.send("message", v.h.renderMessage(role, text))
}

func (v *sseView) SetInputEnabled(enabled bool) {
	_ = v.send("input", gin.H{"enabled": enabled})
}

func (v *sseView) ShowTyping() {
	_ = v.send("typing", gin.H{"visible": true, "label": v.h.assistantLabel})
}

func (v *sseView) HideTyping() {
	_ = v.send("typing", gin.H{"visible": false})
}
