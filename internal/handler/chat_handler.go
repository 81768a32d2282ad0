package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nggaadaotak/kintari-be/internal/service"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 跨域由 CORS 中间件统一处理
	},
}

// ChatHandler 负责处理问答请求，包括 REST 与 WebSocket 两种方式。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Query 回答一个问题。
func (h *ChatHandler) Query(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "无效的请求体")
		return
	}
	resp, err := h.chatService.Query(c.Request.Context(), req)
	if err != nil {
		abort(c, "处理问题", err)
		return
	}
	ok(c, "success", resp)
}

// Context 返回当前知识上下文的预览。
func (h *ChatHandler) Context(c *gin.Context) {
	info, err := h.chatService.Context(c.Request.Context())
	if err != nil {
		abort(c, "组装上下文", err)
		return
	}
	ok(c, "success", info)
}

// History 返回某个会话的问答记录。
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	history, err := h.chatService.History(c.Request.Context(), sessionID)
	if err != nil {
		abort(c, "获取会话历史", err)
		return
	}
	ok(c, "success", gin.H{"session_id": sessionID, "messages": history})
}

// Websocket 处理一个 WebSocket 连接：每条 JSON 请求对应一条 JSON 响应。
// 未指定 session_id 的消息共用本连接生成的会话 ID。
func (h *ChatHandler) Websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	log.Infof("WebSocket 连接已建立, session=%s", sessionID)

	for {
		var req service.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}

		resp, err := h.chatService.Query(c.Request.Context(), req)
		if err != nil {
			log.Errorf("处理 WebSocket 问题失败: %v", err)
			if werr := conn.WriteJSON(gin.H{"status": "error", "error": wsErrorMessage(err)}); werr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Warnf("写入 WebSocket 响应失败: %v", err)
			return
		}
	}
}

func wsErrorMessage(err error) string {
	if statusOf(err) < http.StatusInternalServerError {
		return err.Error()
	}
	return "服务器内部错误"
}
