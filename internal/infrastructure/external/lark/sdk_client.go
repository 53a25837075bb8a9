package lark

import (
	"context"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"
)

// SDKClient wraps the Lark SDK client
type SDKClient struct {
	client *lark.Client
	logger *zap.Logger
}

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
	BaseURL   string // empty means the public Lark endpoint
	Debug     bool
}

// Enabled reports whether credentials are present
func (c Config) Enabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// NewSDKClient creates a Lark SDK client whose internal logs go through logger
func NewSDKClient(cfg Config, logger *zap.Logger) *SDKClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	level := larkcore.LogLevelInfo
	if cfg.Debug {
		level = larkcore.LogLevelDebug
	}

	opts := []lark.ClientOptionFunc{
		lark.WithLogLevel(level),
		lark.WithLogger(sdkLogger{logger.Named("lark")}),
		lark.WithEnableTokenCache(true),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}

	return &SDKClient{
		client: lark.NewClient(cfg.AppID, cfg.AppSecret, opts...),
		logger: logger,
	}
}

// GetClient returns the underlying Lark SDK client
func (c *SDKClient) GetClient() *lark.Client {
	return c.client
}

// sdkLogger adapts zap to larkcore.Logger
type sdkLogger struct {
	l *zap.Logger
}

var _ larkcore.Logger = sdkLogger{}

func (s sdkLogger) Debug(_ context.Context, args ...interface{}) {
	s.l.Debug(fmt.Sprint(args...))
}

func (s sdkLogger) Info(_ context.Context, args ...interface{}) {
	s.l.Info(fmt.Sprint(args...))
}

func (s sdkLogger) Warn(_ context.Context, args ...interface{}) {
	s.l.Warn(fmt.Sprint(args...))
}

func (s sdkLogger) Error(_ context.Context, args ...interface{}) {
	s.l.Error(fmt.Sprint(args...))
}
