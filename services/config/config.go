package config

import (
	"context"

	"kw9010-node/bus"
	"kw9010-node/errcode"
	"kw9010-node/types"
	"kw9010-node/x/logx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// TopicNode carries the retained types.NodeConfig.
var TopicNode = bus.T(configPrefix, "node")

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) (types.NodeConfig, bool) {
	c, ok := setups[device]
	return c, ok
}

type ConfigService struct {
	Name string
	log  logx.Logger
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName, log: logx.New(serviceName)}
}

// publishConfig resolves the device config and publishes it retained.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "missing device ID in context"}
	}
	cfg, ok := EmbeddedConfigLookup(device)
	if !ok {
		return &errcode.E{C: errcode.NotConfigured, Op: "config", Msg: device}
	}
	if err := Validate(cfg); err != nil {
		return err
	}
	conn.Publish(conn.NewMessage(TopicNode, cfg, true))
	s.log.Info("published", logx.Str("device", device), logx.Int("sensors", int64(len(cfg.Sensors))))
	return nil
}

// Start resolves and publishes the device config. Publishing never
// blocks, so this runs inline and reports lookup or validation errors.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) error {
	if err := s.publishConfig(ctx, conn); err != nil {
		s.log.Error("publish failed", logx.Err(err))
		return err
	}
	return nil
}

// Validate rejects configs the node cannot run.
func Validate(c types.NodeConfig) error {
	if len(c.Sensors) == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "no sensors"}
	}
	seen := make(map[string]bool, len(c.Sensors))
	for _, b := range c.Sensors {
		switch {
		case b.Name == "":
			return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "sensor without name"}
		case seen[b.Name]:
			return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "duplicate sensor " + b.Name}
		case b.ID > 0x3F:
			return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "id out of range for " + b.Name}
		case b.Channel > 3:
			return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "channel out of range for " + b.Name}
		}
		seen[b.Name] = true
	}
	return nil
}
