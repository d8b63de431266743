package shell

// Hub publishes launcher state as typed events, satisfying Notifier.

func (h *Hub) Status(text, subtext string) {
	_ = h.Broadcast(EventStatus, map[string]interface{}{"text": text, "subtext": subtext})
}

func (h *Hub) Version(version string) {
	_ = h.Broadcast(EventVersion, map[string]interface{}{"version": version})
}

func (h *Hub) Progress(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	_ = h.Broadcast(EventProgress, map[string]interface{}{"percent": percent})
}

func (h *Hub) ProgressIndeterminate() {
	_ = h.Broadcast(EventProgressIndeterminate, nil)
}

func (h *Hub) ProgressLabel(left, right string) {
	_ = h.Broadcast(EventProgressLabel, map[string]interface{}{"left": left, "right": right})
}

func (h *Hub) ShowInstallButton() {
	_ = h.Broadcast(EventButtonInstall, map[string]interface{}{"visible": true})
}

func (h *Hub) HideInstallButton() {
	_ = h.Broadcast(EventButtonInstall, map[string]interface{}{"visible": false})
}

func (h *Hub) ShowRetryButton() {
	_ = h.Broadcast(EventButtonRetry, map[string]interface{}{"visible": true})
}

func (h *Hub) HideRetryButton() {
	_ = h.Broadcast(EventButtonRetry, map[string]interface{}{"visible": false})
}

func (h *Hub) Error(message string) {
	_ = h.Broadcast(EventError, map[string]interface{}{"message": message})
}

func (h *Hub) HideWindow() {
	_ = h.Broadcast(EventWindowHide, nil)
}
