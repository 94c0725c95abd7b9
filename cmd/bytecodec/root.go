package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/bytecodec"
	asynchook "github.com/unkn0wn-root/bytecodec/hooks/async"
	"github.com/unkn0wn-root/bytecodec/internal/config"
	zaplog "github.com/unkn0wn-root/bytecodec/log/zap"
	pr "github.com/unkn0wn-root/bytecodec/provider"
	"github.com/unkn0wn-root/bytecodec/provider/bigcache"
	rp "github.com/unkn0wn-root/bytecodec/provider/redis"
	"github.com/unkn0wn-root/bytecodec/provider/ristretto"
	"github.com/unkn0wn-root/bytecodec/sloghooks"
)

// app is the per-invocation state built in PersistentPreRunE.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	hooks *asynchook.Hooks
	conv  *bytecodec.Converter
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "bytecodec",
		Short:         "Convert data between hex, base64, base64url and UTF-8 text",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, cfgFile)
		},
	}

	d := config.Defaults()
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: <user config dir>/bytecodec/bytecodec.yaml, then ./bytecodec.yaml)")
	pf.String("log-level", d["log-level"].(string), "log level (debug|info|warn|error)")
	pf.Int("max-input", d["max-input"].(int), "maximum input size in bytes; 0 disables the limit")
	pf.Bool("normalize", d["normalize"].(bool), "NFC-normalize text before UTF-8 serialization")
	pf.String("namespace", d["namespace"].(string), "memo key namespace")
	pf.String("memo", d["memo"].(string), "decode memo backend (none|bigcache|ristretto|redis)")
	pf.Duration("memo-ttl", d["memo-ttl"].(time.Duration), "memo entry lifetime")
	pf.Int("memo-min-input", d["memo-min-input"].(int), "inputs shorter than this skip the memo")
	pf.String("redis-addr", d["redis-addr"].(string), "redis address for --memo redis")

	cmd.AddCommand(
		newConvertCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newCustomIDCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, cfgFile string) error {
	c, err := config.LoadConfig[config.Config](cmd, config.Defaults(), cfgFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	a.cfg = c

	// zap and the hook worker share stderr
	stderr := zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr()))
	a.log = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), stderr, lvl))

	sl := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slogLevel(lvl)}))
	a.hooks = asynchook.New(sloghooks.New(sl, sloghooks.Options{InvalidInputEvery: 1, SelfHealEvery: 1}), 1, 256)

	ctx := cmd.Context()
	p, err := openMemo(ctx, c)
	if err != nil {
		a.hooks.Close()
		return fmt.Errorf("open %s memo: %w", c.Memo, err)
	}

	conv, err := bytecodec.New(bytecodec.Options{
		Namespace:    c.Namespace,
		Logger:       zaplog.New(a.log),
		Hooks:        a.hooks,
		MaxInput:     c.MaxInput,
		Normalize:    c.Normalize,
		Provider:     p,
		MemoTTL:      c.MemoTTL,
		MemoMinInput: c.MemoMinInput,
	})
	if err != nil {
		if p != nil {
			_ = p.Close(ctx)
		}
		a.hooks.Close()
		return err
	}
	a.conv = conv
	a.log.Debug("ready", zap.String("memo", c.Memo), zap.Int("max_input", c.MaxInput))
	return nil
}

// run wraps a command body so the converter, hooks and logger are released
// whether or not the body fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		return errors.Join(err, a.close(cmd.Context()))
	}
}

func (a *app) close(ctx context.Context) error {
	var err error
	if a.conv != nil {
		err = a.conv.Close(ctx)
	}
	if a.hooks != nil {
		a.hooks.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

func openMemo(ctx context.Context, c config.Config) (pr.Provider, error) {
	ttl := c.MemoTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	switch c.Memo {
	case config.MemoBigcache:
		p, err := bigcache.New(ctx, bigcache.Config{LifeWindow: ttl})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.MemoRistretto:
		p, err := ristretto.New(ristretto.Config{NumCounters: 1e5, MaxCost: 64 << 20, BufferItems: 64})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.MemoRedis:
		dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		p, err := rp.Dial(dctx, c.RedisAddr)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, nil
}

func slogLevel(l zapcore.Level) slog.Level {
	switch {
	case l <= zapcore.DebugLevel:
		return slog.LevelDebug
	case l == zapcore.InfoLevel:
		return slog.LevelInfo
	case l == zapcore.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
