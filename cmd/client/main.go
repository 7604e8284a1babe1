package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/CloudEngineHub/headlamp/messaging"
	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.L().Fatal("client failed", helpers.Error(err))
	}
}

func newRootCmd() *cobra.Command {
	serverUrl := "ws://localhost:4466"
	if u := os.Getenv("HEADLAMP_SERVER_URL"); u != "" {
		serverUrl = u
	}
	subscribe := messaging.SubscribeMessage{
		Event: messaging.MsgPropEventValueSubscribe,
		Kind:  "/v1/pods",
	}
	var strategy string
	cmd := &cobra.Command{
		Use:   "client [kind]",
		Short: "Print a projected resource list as it changes",
		Long: `client subscribes to one resource kind on a projection server and prints
its rows every time the projected list changes.

The kind is written group/version/resource, e.g. apps/v1/deployments or /v1/pods.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				subscribe.Kind = args[0]
			}
			subscribe.Strategy = domain.Strategy(strategy)
			return watchProjection(cmd.Context(), serverUrl, subscribe)
		},
	}
	cmd.Flags().StringVarP(&serverUrl, "server", "s", serverUrl, "Projection server URL")
	cmd.Flags().StringVarP(&subscribe.Namespace, "namespace", "n", "", "Namespace to watch, all namespaces when empty")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Update strategy: copy or patch, the server default when empty")
	return cmd
}

// watchProjection keeps a subscription open, reconnecting until ctx is done.
func watchProjection(ctx context.Context, serverUrl string, subscribe messaging.SubscribeMessage) error {
	dialer := ws.Dialer{NetDial: utils.GetDialer()}

	// websocket client
	newConn := func() (net.Conn, io.ReadWriter, error) {
		var conn net.Conn
		var rw io.ReadWriter
		if err := backoff.RetryNotify(func() error {
			c, br, _, err := dialer.Dial(ctx, serverUrl)
			if err != nil {
				return err
			}
			conn, rw = c, c
			if br != nil {
				rw = struct {
					io.Reader
					io.Writer
				}{io.MultiReader(br, c), c}
			}
			return nil
		}, backoff.WithContext(utils.NewBackOff(), ctx), func(err error, d time.Duration) {
			logger.L().Ctx(ctx).Warning("connection error", helpers.Error(err),
				helpers.String("retry in", d.String()))
		}); err != nil {
			return nil, nil, fmt.Errorf("unable to create websocket connection: %w", err)
		}
		return conn, rw, nil
	}

	for ctx.Err() == nil {
		conn, rw, err := newConn()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		err = run(ctx, conn, rw, subscribe)
		_ = conn.Close()
		if err != nil && ctx.Err() == nil {
			logger.L().Ctx(ctx).Warning("connection lost, reconnecting", helpers.Error(err))
		}
	}
	return nil
}

func run(ctx context.Context, conn net.Conn, rw io.ReadWriter, subscribe messaging.SubscribeMessage) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	send := func(msg interface{}) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		return wsutil.WriteClientBinary(rw, data)
	}
	subscribe.MsgId = uuid.NewString()
	if err := send(subscribe); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	p := &projection{out: os.Stdout}
	for {
		data, err := wsutil.ReadServerBinary(rw)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		reply, err := p.handle(data)
		if err != nil {
			logger.L().Ctx(ctx).Warning("cannot handle message", helpers.Error(err))
			continue
		}
		if reply != nil {
			if err := send(reply); err != nil {
				return fmt.Errorf("send reply: %w", err)
			}
		}
	}
}
