package console

import (
	"adbtool/pkg/api"
	"adbtool/pkg/handler"
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Prompt is printed before every line read from the terminal.
const Prompt = "adb-tool > "

// ConsoleChannel is the interactive shell on the local terminal. It reads one
// command per line and ends on exit, quit or end of input.
type ConsoleChannel struct {
	in   io.Reader
	out  io.Writer
	mu   sync.Mutex // serializes writes to out
	done chan struct{}
	once sync.Once
}

func NewConsoleChannel(in io.Reader, out io.Writer) *ConsoleChannel {
	return &ConsoleChannel{
		in:   in,
		out:  out,
		done: make(chan struct{}),
	}
}

func (c *ConsoleChannel) ID() string {
	return "console"
}

// Start begins reading input in the background.
func (c *ConsoleChannel) Start(ctx api.ChannelContext) error {
	slog.Info("命令行界面启动，输入 'help' 查看可用命令")
	go c.loop(ctx)
	return nil
}

// Done is closed when the user leaves the shell.
func (c *ConsoleChannel) Done() <-chan struct{} {
	return c.done
}

func (c *ConsoleChannel) Stop() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *ConsoleChannel) Send(_ api.SessionContext, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, message)
	return err
}

func (c *ConsoleChannel) loop(ctx api.ChannelContext) {
	defer c.Stop()

	session := api.SessionContext{
		ChannelID: c.ID(),
		UserID:    "local",
		ChatID:    "local",
		Username:  "console",
	}

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		c.prompt()
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				slog.Error("Failed to read input", "error", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if handler.IsExit(line) {
			slog.Info("应用程序退出")
			return
		}
		// 同步處理，結果印出後才顯示下一個提示符
		ctx.OnMessage(c.ID(), &api.UnifiedMessage{Session: session, Content: line})
	}
}

func (c *ConsoleChannel) prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, Prompt)
}

var _ api.Channel = (*ConsoleChannel)(nil)
