package channels

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"errors"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

type stubChannel struct{ id string }

func (s *stubChannel) ID() string                            { return s.id }
func (s *stubChannel) Start(api.ChannelContext) error        { return nil }
func (s *stubChannel) Stop() error                           { return nil }
func (s *stubChannel) Send(api.SessionContext, string) error { return nil }

type stubFactory struct {
	id  string
	err error
	got *config.SystemConfig
}

func (f *stubFactory) Create(_ jsoniter.RawMessage, sys *config.SystemConfig) (api.Channel, error) {
	f.got = sys
	if f.err != nil {
		return nil, f.err
	}
	if f.id == "" {
		return nil, nil
	}
	return &stubChannel{id: f.id}, nil
}

func TestLoadFromConfig(t *testing.T) {
	good := &stubFactory{id: "stub-good"}
	RegisterChannel("stub-good", good)
	RegisterChannel("stub-bad", &stubFactory{err: errors.New("boom")})
	RegisterChannel("stub-nil", &stubFactory{})

	got := LoadFromConfig(map[string]jsoniter.RawMessage{
		"stub-good": jsoniter.RawMessage(`{}`),
		"stub-bad":  jsoniter.RawMessage(`{}`),
		"stub-nil":  jsoniter.RawMessage(`{}`),
		"unknown":   jsoniter.RawMessage(`{}`),
	}, nil)

	if len(got) != 1 || got[0].ID() != "stub-good" {
		t.Fatalf("LoadFromConfig() = %v", got)
	}
	if good.got == nil || good.got.TelegramMessageLimit != config.DefaultSystemConfig().TelegramMessageLimit {
		t.Fatal("nil system config must fall back to defaults")
	}
}
