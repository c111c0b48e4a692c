package dispatch

import (
	"context"
	"encoding/json"

	"roomcast/model"
	"roomcast/progress"
)

const (
	// KeyTargetSender takes the batched request shape.
	KeyTargetSender = "KakaoTargetSender"
	// KeyBot takes the single-room shape {roomName, message}.
	KeyBot = "KakaoBot"
)

// Sender is the engine surface the send module needs.
type Sender interface {
	Run(ctx context.Context, id string, req model.SendRequest, rep progress.Reporter) (model.Result, error)
}

// SendModule decodes a send request and hands it to the engine. Both request
// shapes are accepted under either key.
type SendModule struct {
	key    string
	sender Sender
}

func NewSendModule(key string, s Sender) *SendModule {
	return &SendModule{key: key, sender: s}
}

func (m *SendModule) Key() string { return m.key }

func (m *SendModule) Execute(ctx context.Context, runID string, raw json.RawMessage, rep progress.Reporter) model.Response {
	req, err := model.DecodeRequest(raw)
	if err != nil {
		return model.Failure(err)
	}
	res, err := m.sender.Run(ctx, runID, req, rep)
	if err != nil {
		return model.Failure(err)
	}
	return res.Response()
}

// RegisterSend registers the send module under both keys.
func RegisterSend(reg *Registry, s Sender) error {
	for _, key := range []string{KeyTargetSender, KeyBot} {
		if err := reg.Register(NewSendModule(key, s)); err != nil {
			return err
		}
	}
	return nil
}
