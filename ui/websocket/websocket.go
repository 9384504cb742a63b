package websocket

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/wadesk/wadesk/infrastructure/valkey"
)

type client struct {
	// Phones the connection subscribed to. Empty means the client only
	// receives global (conversation list) events.
	phones map[string]struct{}
}

type BroadcastMessage struct {
	Code     string `json:"code"`
	Phone    string `json:"phone,omitempty"`
	Message  string `json:"message,omitempty"`
	Result   any    `json:"result"`
	SenderID string `json:"sender_id,omitempty"`
}

// Client -> server control frame.
type controlMessage struct {
	Code  string `json:"code"`
	Phone string `json:"phone"`
}

var (
	Clients    = make(map[*websocket.Conn]*client)
	Register   = make(chan *websocket.Conn)
	Broadcast  = make(chan BroadcastMessage)
	Unregister = make(chan *websocket.Conn)

	subscribe   = make(chan subscription)
	unsubscribe = make(chan subscription)

	vkClient *valkey.Client
	wsChan   = "wadesk:ws_broadcast"
	localID  string
)

type subscription struct {
	conn  *websocket.Conn
	phone string
}

// SetValkeyClient initializes the distributed broadcast system
func SetValkeyClient(c *valkey.Client, serverID string) {
	vkClient = c
	localID = serverID
}

func handleRegister(conn *websocket.Conn) {
	Clients[conn] = &client{phones: make(map[string]struct{})}
	logrus.Debug("[WS] Connection registered")
}

func handleUnregister(conn *websocket.Conn) {
	delete(Clients, conn)
	logrus.Debug("[WS] Connection unregistered")
}

// wantsMessage decides whether a connection receives an event. Events without
// a phone are global; events scoped to a phone go to its subscribers and to
// clients with no subscription at all (the conversation list view).
func (c *client) wantsMessage(message BroadcastMessage) bool {
	if message.Phone == "" || len(c.phones) == 0 {
		return true
	}
	_, ok := c.phones[message.Phone]
	return ok
}

func broadcastToLocal(message BroadcastMessage) {
	marshalMessage, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}

	for conn, cl := range Clients {
		if !cl.wantsMessage(message) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, marshalMessage); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			closeConnection(conn)
		}
	}
}

func publishToValkey(message BroadcastMessage) {
	if vkClient == nil {
		return
	}

	// Attach local ID as sender
	message.SenderID = localID

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	ctx := context.Background()
	cmd := vkClient.Inner().B().Publish().Channel(wsChan).Message(string(data)).Build()
	if err := vkClient.Inner().Do(ctx, cmd).Error(); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func startValkeySubscriber() {
	if vkClient == nil {
		return
	}

	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	go func() {
		err := vkClient.Inner().Receive(context.Background(), vkClient.Inner().B().Subscribe().Channel(wsChan).Build(), func(msg valkeylib.PubSubMessage) {
			var broadcastMsg BroadcastMessage
			if err := json.Unmarshal([]byte(msg.Message), &broadcastMsg); err == nil {
				// Avoid loops: ignore messages sent by this same instance
				if broadcastMsg.SenderID == localID {
					return
				}
				broadcastToLocal(broadcastMsg)
			}
		})
		if err != nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

func closeConnection(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = conn.Close()
	delete(Clients, conn)
}

func RunHub() {
	// If Valkey is enabled, start the subscriber
	if vkClient != nil {
		startValkeySubscriber()
	}

	for {
		select {
		case conn := <-Register:
			handleRegister(conn)

		case conn := <-Unregister:
			handleUnregister(conn)

		case sub := <-subscribe:
			if cl, ok := Clients[sub.conn]; ok {
				cl.phones[sub.phone] = struct{}{}
			}

		case sub := <-unsubscribe:
			if cl, ok := Clients[sub.conn]; ok {
				delete(cl.phones, sub.phone)
			}

		case message := <-Broadcast:
			// 1. Send to local clients immediately
			broadcastToLocal(message)

			// 2. If Valkey is active, propagate to other servers
			if vkClient != nil {
				publishToValkey(message)
			}
		}
	}
}

// Emitter bridges the usecase layer to the hub. It satisfies the realtime
// emitter interface without the usecases importing fiber or websocket types.
type Emitter struct{}

func NewEmitter() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Emit(code, phone string, payload any) {
	Broadcast <- BroadcastMessage{
		Code:   code,
		Phone:  phone,
		Result: payload,
	}
}

func RegisterRoutes(app fiber.Router) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		defer func() {
			Unregister <- conn
			_ = conn.Close()
		}()

		Register <- conn

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Println("read error:", err)
				}
				return
			}

			if messageType == websocket.TextMessage {
				var ctrl controlMessage
				if err := json.Unmarshal(message, &ctrl); err != nil {
					logrus.Println("unmarshal error:", err)
					continue
				}

				switch ctrl.Code {
				case "SUBSCRIBE":
					if ctrl.Phone != "" {
						subscribe <- subscription{conn: conn, phone: ctrl.Phone}
					}
				case "UNSUBSCRIBE":
					if ctrl.Phone != "" {
						unsubscribe <- subscription{conn: conn, phone: ctrl.Phone}
					}
				}
			} else {
				logrus.Println("unsupported message type:", messageType)
			}
		}
	}))
}
