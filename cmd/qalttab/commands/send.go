package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/qalttab/internal/ipc"
	"github.com/bryanchriswhite/qalttab/internal/window"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a focus notification to a running instance",
	Long: `Send one notification to the listener socket, the way qtile's hooks do.

Each --window flag is one descriptor of comma separated key=value pairs.
Useful for exercising the overlay without qtile.`,
	Example: `  # Show the overlay with two windows
  qalttab send --type cycle_windows \
    --window id=1,class=Alacritty,name=term,group_name=1,group_label=I \
    --window id=2,class=firefox,name=web,group_name=2,group_label=II

  # Hide it again
  qalttab send --type client_focus --window id=1`,
	RunE: runSend,
}

var (
	sendType    string
	sendWindows []string
	sendSocket  string
)

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendType, "type", "t", ipc.MessageCycleWindows, "message type (cycle_windows or client_focus)")
	sendCmd.Flags().StringArrayVarP(&sendWindows, "window", "w", nil, "window descriptor as key=value pairs (repeatable)")
	sendCmd.Flags().StringVar(&sendSocket, "socket", "", "listener socket (default derived from the config)")
}

func runSend(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	socketPath := sendSocket
	if socketPath == "" {
		if socketPath, err = cfg.NotifySocketPath(); err != nil {
			return err
		}
	}

	windows := make([]window.Window, 0, len(sendWindows))
	for _, arg := range sendWindows {
		w, err := parseWindowArg(arg)
		if err != nil {
			return err
		}
		windows = append(windows, w)
	}

	ack, err := ipc.Send(context.Background(), socketPath, ipc.Message{
		MessageType: sendType,
		Windows:     windows,
	}, cfg.IPC.Timeout)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
	return nil
}

// parseWindowArg turns "id=1,name=term" into a descriptor
func parseWindowArg(arg string) (window.Window, error) {
	w := window.Window{}
	for _, pair := range strings.Split(arg, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid window field %q (want key=value)", pair)
		}
		w[key] = value
	}
	if len(w) == 0 {
		return nil, fmt.Errorf("empty window descriptor")
	}
	return w, nil
}
