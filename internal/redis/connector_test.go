package redis

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

func validOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    50 * time.Millisecond,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
	}
}

func TestConnect_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
		want   string
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }, "addr"},
		{"no connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }, "ConnectTimeout"},
		{"no retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }, "RetryInterval"},
		{"no max wait", func(o *ConnectOptions) { o.MaxWait = 0 }, "MaxWait"},
		{"no ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }, "PingTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions("127.0.0.1:6379")
			tt.mutate(&opts)
			_, err := Connect(context.Background(), opts, logger.NewNop())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Connect() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestConnect_GivesUp(t *testing.T) {
	// Grab a free port and close it so nothing listens there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	start := time.Now()
	_, err = Connect(context.Background(), validOptions(addr), logger.NewNop())
	if err == nil {
		t.Fatal("Connect() error = nil, want unavailable")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Connect() took %v, want bounded by ConnectTimeout", elapsed)
	}
}
