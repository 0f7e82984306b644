package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream catalog replacement events",
	Long: `Follows catalog.replaced events over the API's websocket, or over the
TCP sync stream when --tcp is given. Reconnects until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("tcp", "", "TCP sync address, e.g. 127.0.0.1:7070")
	watchCmd.Flags().Bool("pretty", true, "pretty print JSON events")
	watchCmd.Flags().Bool("once", false, "exit after the first disconnect")
}

func runWatch(cmd *cobra.Command, args []string) error {
	tcpAddr, _ := cmd.Flags().GetString("tcp")
	pretty, _ := cmd.Flags().GetBool("pretty")
	once, _ := cmd.Flags().GetBool("once")
	ctx := cmd.Context()

	for {
		var err error
		if tcpAddr != "" {
			err = watchTCP(ctx, tcpAddr, cmd.OutOrStdout(), pretty)
		} else {
			err = watchWebSocket(ctx, apiURL, cmd.OutOrStdout(), pretty)
		}
		if once || ctx.Err() != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "disconnected: %v; reconnecting\n", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func watchTCP(ctx context.Context, addr string, w io.Writer, pretty bool) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(w, sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func watchWebSocket(ctx context.Context, base string, w io.Writer, pretty bool) error {
	wsURL, err := websocketURL(base, "/ws")
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return io.EOF
			}
			return err
		}
		printEvent(w, msg, pretty)
	}
}

func printEvent(w io.Writer, line []byte, pretty bool) {
	if !pretty {
		fmt.Fprintln(w, string(line))
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		// not JSON, print raw
		fmt.Fprintln(w, string(line))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Fprintln(w, string(b))
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("api URL has no host: " + baseURL)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}
