package notification

import (
	"strings"

	"github.com/major-app/notify-engine/internal/model"
)

// messagePreview derives the display line for a chat message, in priority
// order: call outcome, then media kind, then trimmed text.
func messagePreview(ev *model.MessageEvent) string {
	if ev.CallType != "" {
		label := "voice"
		if ev.CallType == "video" {
			label = "video"
		}
		status := "Completed"
		if ev.CallStatus == "missed" {
			status = "Missed"
		}
		return status + " " + label + " call"
	}

	if len(ev.Media) > 0 {
		return mediaPreview(ev.Media[0].Type)
	}
	if ev.MediaType != "" {
		return mediaPreview(ev.MediaType)
	}

	if text := strings.TrimSpace(ev.Text); text != "" {
		return text
	}
	return "New message"
}

func mediaPreview(kind string) string {
	switch kind {
	case "image":
		return "📷 Photo"
	case "video":
		return "🎬 Video"
	case "audio":
		return "🎙️ Voice note"
	default:
		return "📎 Attachment"
	}
}
