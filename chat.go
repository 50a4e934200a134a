package codebuddy

import (
	"hash/fnv"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

// ChatGreeting is the assistant's opening line.
const ChatGreeting = "Hey there, Code Warrior! I'm your debugging assistant. Ready to squash some bugs?"

var chatReplies = []string{
	"Great question! Let me analyze that code for you...",
	"I see the issue! Here's what's happening in your code...",
	"That's a classic debugging challenge! Let me break it down...",
	"Excellent! I can help you optimize that. Here's my suggestion...",
	"Nice catch! That bug is tricky. Here's how to fix it...",
}

// maxChatMessage is measured in characters, matching the input's maxlength.
const maxChatMessage = 2000

type chatRequest struct {
	Message string `json:"message" form:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// chatReply picks a canned reply. The same message always gets the same
// reply.
func chatReply(msg string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(msg))))
	return chatReplies[h.Sum32()%uint32(len(chatReplies))]
}

func (a *App) handleChat(c echo.Context) error {
	if !a.chatLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Slow down a little. Try again in a few seconds."})
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chat request")
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return c.JSON(http.StatusOK, chatResponse{Reply: ChatGreeting})
	}
	if utf8.RuneCountInString(msg) > maxChatMessage {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "Message is too long."})
	}
	return c.JSON(http.StatusOK, chatResponse{Reply: chatReply(msg)})
}
