package websocket

import "forge-server/internal/service"

// Event types pushed on forge topics.
const (
	EventForgeProgress = "forge_progress"
	EventForgeDone     = "forge_done"
)

// ForgeTopic is the subscription topic for one forge run.
func ForgeTopic(forgeID string) string {
	return "forge:" + forgeID
}

// ForgeNotifier publishes forge progress over the connection manager.
type ForgeNotifier struct {
	manager *Manager
}

func NewForgeNotifier(manager *Manager) *ForgeNotifier {
	return &ForgeNotifier{manager: manager}
}

var _ service.Notifier = (*ForgeNotifier)(nil)

func (n *ForgeNotifier) NotifyStage(forgeID string, stages []service.ForgeStage) {
	n.manager.Publish(Event{
		Type:    EventForgeProgress,
		Topic:   ForgeTopic(forgeID),
		Payload: stages,
	})
}

func (n *ForgeNotifier) NotifyDone(forgeID string, run service.ForgeRun) {
	n.manager.Publish(Event{
		Type:    EventForgeDone,
		Topic:   ForgeTopic(forgeID),
		Payload: run,
	})
}
