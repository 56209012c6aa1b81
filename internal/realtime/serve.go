package realtime

import (
	"encoding/json"
	"strings"

	"k8s.io/klog/v2"
)

// ReadConn 可读写的长连接
type ReadConn interface {
	Conn
	ReadJSON(v any) error
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outgoingNotification struct {
	To      string `json:"to"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Serve 处理一个连接直到读失败，连接断开等同于 disconnect。
// username 为鉴权得到的用户名，register 事件只能绑定到该用户名
func (h *Hub) Serve(conn ReadConn, username string) {
	session := NewSession(conn)
	defer func() {
		h.Unregister(session)
		_ = conn.Close()
	}()

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			klog.V(6).Infof("realtime: connection of %s closed: %v", username, err)
			return
		}

		switch msg.Event {
		case EventRegister:
			if requested := registerName(msg.Data); requested != "" && requested != username {
				klog.Warningf("realtime: %s tried to register as %s", username, requested)
			}
			h.Register(username, session)
		case EventRequestUsers:
			if err := h.SendUsers(session); err != nil {
				klog.Warningf("realtime: failed to send users to %s: %v", username, err)
			}
		case EventSendNotification:
			var out outgoingNotification
			if err := json.Unmarshal(msg.Data, &out); err != nil || out.To == "" {
				klog.Warningf("realtime: bad notification from %s: %v", username, err)
				continue
			}
			h.Notify(out.To, Notification{
				From:    username,
				Type:    out.Type,
				Title:   out.Title,
				Message: out.Message,
				Data:    out.Data,
			})
		case EventLogout:
			h.Unregister(session)
		default:
			klog.V(6).Infof("realtime: unknown event %q from %s", msg.Event, username)
		}
	}
}

// registerName 兼容 "name" 与 {"username": "name"} 两种格式
func registerName(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return strings.TrimSpace(name)
	}
	var obj struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return strings.TrimSpace(obj.Username)
	}
	return ""
}
