package lib

import (
	"fmt"
	"os"
	"sync"

	"github.com/pusher/pusher-http-go/v5"
)

var (
	pusherClient *pusher.Client
	pusherMu     sync.Mutex
)

func GetPusherClient() *pusher.Client {
	pusherMu.Lock()
	defer pusherMu.Unlock()
	if pusherClient != nil {
		return pusherClient
	}
	pusherClient = &pusher.Client{
		AppID:   os.Getenv("PUSHER_APP_ID"),
		Key:     os.Getenv("PUSHER_KEY"),
		Secret:  os.Getenv("PUSHER_SECRET"),
		Cluster: os.Getenv("PUSHER_CLUSTER"),
		Secure:  true,
	}
	return pusherClient
}

func RoomChannel(roomID uint) string {
	return fmt.Sprintf("room-%d", roomID)
}

func PusherEnabled() bool {
	return os.Getenv("PUSHER_APP_ID") != "" && os.Getenv("PUSHER_KEY") != ""
}

// PusherTrigger sends a realtime event to the room's channel.
func PusherTrigger(roomID uint, event string, data any) error {
	if !PusherEnabled() {
		return nil
	}
	return GetPusherClient().Trigger(RoomChannel(roomID), event, data)
}
