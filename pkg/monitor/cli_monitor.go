package monitor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// CLIMonitor implements the Monitor interface, echoing commands that arrive
// from remote channels (and their outcomes) to the local terminal.
type CLIMonitor struct {
	mu     sync.Mutex
	writer io.Writer // The output destination, typically os.Stdout.
}

// NewCLIMonitor creates a new CLI monitor writing to w (os.Stdout when nil).
func NewCLIMonitor(w io.Writer) *CLIMonitor {
	if w == nil {
		w = os.Stdout
	}
	return &CLIMonitor{
		writer: w,
	}
}

// Start starts the CLI monitor
func (m *CLIMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	fmt.Fprintln(m.writer, "远程通道的命令与结果将显示在这里")
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	return nil
}

// Stop stops the CLI monitor
func (m *CLIMonitor) Stop() error {
	return nil
}

// OnMessage receives and displays a monitoring message
func (m *CLIMonitor) OnMessage(msg MonitorMessage) {
	timestamp := msg.Timestamp.Format("2006-01-02 15:04:05")

	var displayMsg string
	switch {
	case msg.MessageType == TypeResult && msg.Failed:
		displayMsg = fmt.Sprintf("[%s] \033[31m%s\033[0m", msg.ChannelID, firstLine(msg.Content))
	case msg.MessageType == TypeResult:
		displayMsg = fmt.Sprintf("[%s] %s", msg.ChannelID, firstLine(msg.Content))
	default:
		displayMsg = fmt.Sprintf("[%s/%s] > %s", msg.ChannelID, msg.Username, msg.Content)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Use gray color for timestamp
	fmt.Fprintf(m.writer, "\033[90m[%s]\033[0m %s\n", timestamp, displayMsg)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
