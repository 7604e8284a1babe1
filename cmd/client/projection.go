package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/CloudEngineHub/headlamp/messaging"
	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// projection mirrors one subscription of the projection server.
type projection struct {
	subscriptionId string
	document       []byte
	out            io.Writer
}

// handle applies one server message and returns the reply to send, if any.
func (p *projection) handle(data []byte) (interface{}, error) {
	generic, err := messaging.Decode(data)
	if err != nil {
		return nil, err
	}
	switch generic.Event {
	case messaging.MsgPropEventValueServerConnected:
		var msg messaging.ServerConnectedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal server connected: %w", err)
		}
		logger.L().Info("connected", helpers.String("apiVersion", msg.APIVersion),
			helpers.String("clusterVersion", msg.ClusterVersion),
			helpers.String("cloudProvider", msg.CloudProvider))
	case messaging.MsgPropEventValueView:
		var msg messaging.ViewMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal view: %w", err)
		}
		logger.L().Debug("view", helpers.Int("entries", len(msg.View.Entries)),
			helpers.String("theme", msg.View.Theme))
	case messaging.MsgPropEventValueTheme:
		var msg messaging.ThemeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal theme: %w", err)
		}
		logger.L().Info("theme changed", helpers.String("theme", msg.Theme))
	case messaging.MsgPropEventValueSubscribed:
		var msg messaging.SubscribedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal subscribed: %w", err)
		}
		p.subscriptionId = msg.SubscriptionId
		p.document = nil
		logger.L().Info("subscribed", helpers.String("kind", msg.Kind),
			helpers.String("strategy", string(msg.Strategy)))
	case messaging.MsgPropEventValueSnapshot:
		var msg messaging.SnapshotMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		checksum, err := utils.CanonicalHash(msg.Document)
		if err != nil {
			return nil, fmt.Errorf("hash snapshot: %w", err)
		}
		if checksum != msg.Checksum {
			logger.L().Warning("snapshot checksum mismatch, resyncing")
			return p.resync(), nil
		}
		p.document = msg.Document
		return nil, p.print()
	case messaging.MsgPropEventValuePatch:
		var msg messaging.PatchMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal patch: %w", err)
		}
		if p.document == nil {
			// waiting for a snapshot
			return nil, nil
		}
		document, err := messaging.ApplyPatch(p.document, msg.Patch, msg.Checksum)
		if errors.Is(err, messaging.ErrChecksumMismatch) {
			logger.L().Warning("patch checksum mismatch, resyncing", helpers.Error(err))
			return p.resync(), nil
		}
		if err != nil {
			return nil, err
		}
		p.document = document
		return nil, p.print()
	case messaging.MsgPropEventValueError:
		var msg messaging.ErrorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
		logger.L().Warning("server error", helpers.String("message", msg.Message),
			helpers.String("subscriptionId", msg.SubscriptionId))
	default:
		logger.L().Debug("ignoring message", helpers.String("event", generic.Event))
	}
	return nil, nil
}

func (p *projection) resync() messaging.ResyncMessage {
	p.document = nil
	return messaging.ResyncMessage{
		Event:          messaging.MsgPropEventValueResync,
		MsgId:          uuid.NewString(),
		SubscriptionId: p.subscriptionId,
	}
}

func (p *projection) print() error {
	var doc messaging.Document
	if err := json.Unmarshal(p.document, &doc); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	w := tabwriter.NewWriter(p.out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "--- %s (resourceVersion %s)\n", doc.Kind, doc.ResourceVersion)
	fmt.Fprintln(w, "NAMESPACE\tNAME\tRESOURCE VERSION\tCREATED")
	for _, item := range doc.Rows() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Namespace, item.Name, item.ResourceVersion, item.Created)
	}
	return w.Flush()
}
