package handler

import (
	"net/http"

	"amora-go/internal/realtime"
	"amora-go/pkg/log"
	"amora-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RealtimeHandler 负责 WebSocket 连接的建立与生命周期管理。
type RealtimeHandler struct {
	hub        *realtime.Hub
	jwtManager *token.JWTManager
	upgrader   websocket.Upgrader
}

// NewRealtimeHandler 创建一个新的 RealtimeHandler 实例。
func NewRealtimeHandler(hub *realtime.Hub, jwtManager *token.JWTManager) *RealtimeHandler {
	return &RealtimeHandler{
		hub:        hub,
		jwtManager: jwtManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Connect 将 HTTP 请求升级为 WebSocket 连接并登记到集线器。
// 浏览器的 WebSocket API 无法自定义请求头，token 改由查询参数携带。
func (h *RealtimeHandler) Connect(c *gin.Context) {
	tokenString := c.Query("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "无效或已过期的 token",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("WebSocket 升级失败: userID=%d, err=%v", claims.UserID, err)
		return
	}

	h.hub.Register(claims.UserID, conn)
	log.Infof("WebSocket 已连接: userID=%d", claims.UserID)

	// 读循环只为感知断开，客户端消息一律忽略
	go func() {
		defer func() {
			h.hub.Unregister(claims.UserID, conn)
			conn.Close()
			log.Infof("WebSocket 已断开: userID=%d", claims.UserID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
