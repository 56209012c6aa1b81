package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/weibaohui/contracthub/internal/pkg/metrics"
	"k8s.io/klog/v2"
)

// 服务端发出的事件
const (
	EventUpdateUsers         = "update-users"
	EventReceiveNotification = "receive-notification"
)

// 客户端发来的事件
const (
	EventRegister         = "register"
	EventRequestUsers     = "request-users"
	EventSendNotification = "send-notification"
	EventLogout           = "logout"
)

// Message 实时通道统一消息格式
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Notification receive-notification 事件的数据
type Notification struct {
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Type      string    `json:"type,omitempty"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Conn 一个可写的长连接，websocket.Conn 满足该接口
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Session 单个连接。写操作串行化
type Session struct {
	conn     Conn
	mu       sync.Mutex
	username string
}

// NewSession 创建未注册的会话
func NewSession(conn Conn) *Session {
	return &Session{conn: conn}
}

// Username 未注册时为空
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *Session) setUsername(username string) {
	s.mu.Lock()
	s.username = username
	s.mu.Unlock()
}

// Hub 用户名到会话集合的注册表，由 main 创建后注入
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[*Session]struct{}
	// onChange 在线用户数变化时回调
	onChange func(online int)
}

// NewHub 创建 Hub，onChange 可以为 nil
func NewHub(onChange func(online int)) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
		onChange: onChange,
	}
}

// Register 把会话绑定到用户名。会话已绑定其他用户名时先解绑
func (h *Hub) Register(username string, session *Session) {
	if username == "" || session == nil {
		return
	}

	h.mu.Lock()
	if prev := session.Username(); prev != "" && prev != username {
		h.removeLocked(prev, session)
	}
	set, ok := h.sessions[username]
	if !ok {
		set = make(map[*Session]struct{})
		h.sessions[username] = set
	}
	set[session] = struct{}{}
	session.setUsername(username)
	h.mu.Unlock()

	klog.V(6).Infof("realtime: %s registered", username)
	h.broadcastUsers()
}

// Unregister 移除会话，用户名下没有会话时从在线列表删除
func (h *Hub) Unregister(session *Session) {
	if session == nil {
		return
	}
	username := session.Username()
	if username == "" {
		return
	}

	h.mu.Lock()
	removed := h.removeLocked(username, session)
	h.mu.Unlock()
	session.setUsername("")

	if removed {
		klog.V(6).Infof("realtime: %s session closed", username)
		h.broadcastUsers()
	}
}

func (h *Hub) removeLocked(username string, session *Session) bool {
	set, ok := h.sessions[username]
	if !ok {
		return false
	}
	if _, ok := set[session]; !ok {
		return false
	}
	delete(set, session)
	if len(set) == 0 {
		delete(h.sessions, username)
	}
	return true
}

// Notify 发给该用户名下所有会话，返回成功写入的数量。离线时静默丢弃
func (h *Hub) Notify(username string, notification Notification) int {
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now()
	}
	notification.To = username

	targets := h.snapshot(username)
	delivered := 0
	for _, s := range targets {
		if err := s.Send(Message{Event: EventReceiveNotification, Data: notification}); err != nil {
			klog.Warningf("realtime: failed to notify %s: %v", username, err)
			continue
		}
		delivered++
	}
	metrics.NotificationsDelivered.Add(float64(delivered))
	if delivered == 0 {
		klog.V(6).Infof("realtime: %s is offline, notification dropped", username)
	}
	return delivered
}

// Users 返回排序后的在线用户名
func (h *Hub) Users() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.usersLocked()
}

func (h *Hub) usersLocked() []string {
	users := make([]string, 0, len(h.sessions))
	for username := range h.sessions {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// SendUsers 只向一个会话发送在线列表
func (h *Hub) SendUsers(session *Session) error {
	return session.Send(Message{Event: EventUpdateUsers, Data: h.Users()})
}

func (h *Hub) snapshot(username string) []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.sessions[username]
	out := make([]*Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

func (h *Hub) broadcastUsers() {
	h.mu.Lock()
	users := h.usersLocked()
	all := make([]*Session, 0)
	for _, set := range h.sessions {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	if h.onChange != nil {
		h.onChange(len(users))
	}
	msg := Message{Event: EventUpdateUsers, Data: users}
	for _, s := range all {
		if err := s.Send(msg); err != nil {
			klog.Warningf("realtime: failed to broadcast users to %s: %v", s.Username(), err)
		}
	}
}
