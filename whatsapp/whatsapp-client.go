package whatsapp

import (
	"context"
	"fmt"
	"os"
	"sync"

	_ "github.com/glebarez/go-sqlite"
	"github.com/mdp/qrterminal/v3"
	log "github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

type MessageCallback func(senderName string, senderId types.JID, chatId types.JID, content string)

type WhatsAppClient struct {
	dbPath          string
	messageCallback MessageCallback

	mu     sync.Mutex
	active *whatsmeow.Client
}

func NewClient(dbPath string) *WhatsAppClient {
	return &WhatsAppClient{dbPath: dbPath}
}

func (w *WhatsAppClient) RegisterDevice(ctx context.Context) error {
	client, err := w.initClient(ctx)
	if err != nil {
		return err
	}

	if client.Store.ID != nil {
		return fmt.Errorf("device is already registered to a WhatsApp account: %s", client.Store.PushName)
	}

	qrChannel, err := client.GetQRChannel(ctx)
	if err != nil {
		return err
	}
	err = client.Connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	for evt := range qrChannel {
		if evt.Event == "code" {
			fmt.Println("Please scan the following QR code with your WhatsApp client in order to link the device")
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		} else {
			log.Infof("Login event: %s", evt.Event)
		}
	}
	return nil
}

func (w *WhatsAppClient) SendMessage(ctx context.Context, message string, recipient types.JID) error {
	w.mu.Lock()
	active := w.active
	w.mu.Unlock()
	if active != nil {
		return sendText(ctx, active, message, recipient)
	}

	client, err := w.initClient(ctx)
	if err != nil {
		return err
	}
	if client.Store.ID == nil {
		return fmt.Errorf("no WhatsApp device registered, run 'medilabo register-chat-device' first")
	}

	err = client.Connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	return sendText(ctx, client, message, recipient)
}

func (w *WhatsAppClient) PrintGroupList(ctx context.Context) error {
	client, err := w.initClient(ctx)
	if err != nil {
		return err
	}
	err = client.Connect()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	groups, err := client.GetJoinedGroups(ctx)
	if err != nil {
		return err
	}
	for _, group := range groups {
		log.Infof("Group '%s' - JID: '%s'", group.Name, group.JID)
	}
	return nil
}

func (w *WhatsAppClient) SetMessageCallback(callback MessageCallback) {
	w.messageCallback = callback
}

// StartBot listens for incoming messages until ctx is cancelled. While it
// runs, SendMessage reuses the bot connection.
func (w *WhatsAppClient) StartBot(ctx context.Context) error {
	client, err := w.initClient(ctx)
	if err != nil {
		return err
	}
	if client.Store.ID == nil {
		return fmt.Errorf("no WhatsApp device registered, run 'medilabo register-chat-device' first")
	}

	client.AddEventHandler(func(evt interface{}) {
		message, ok := evt.(*events.Message)
		if !ok || w.messageCallback == nil || message.Info.IsFromMe {
			return
		}
		content := message.Message.GetConversation()
		if content == "" {
			content = message.Message.GetExtendedTextMessage().GetText()
		}
		if content == "" {
			return
		}
		var chatId types.JID
		if message.Info.IsGroup {
			chatId = message.Info.Chat
		}
		w.messageCallback(message.Info.PushName, message.Info.Sender, chatId, content)
	})

	err = client.Connect()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.active = client
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.active = nil
		w.mu.Unlock()
		client.Disconnect()
	}()

	log.Info("WhatsApp bot started, waiting for messages")
	<-ctx.Done()
	log.Info("WhatsApp bot stopped")
	return nil
}

func sendText(ctx context.Context, client *whatsmeow.Client, message string, recipient types.JID) error {
	_, err := client.SendMessage(ctx, recipient, &waE2E.Message{Conversation: proto.String(message)})
	return err
}

func (w *WhatsAppClient) initClient(ctx context.Context) (*whatsmeow.Client, error) {
	var minLogLevel = "INFO"
	if os.Getenv("VERBOSE") != "" {
		minLogLevel = "DEBUG"
	}
	dbLog := waLog.Stdout("Database", minLogLevel, true)
	container, err := sqlstore.New(ctx, "sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", w.dbPath), dbLog)
	if err != nil {
		return nil, err
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, err
	}
	clientLog := waLog.Stdout("Client", minLogLevel, true)
	return whatsmeow.NewClient(device, clientLog), nil
}
