package mccontrol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/xrjr/mcutils/pkg/ping"
)

// ErrStatusTimeout 状态查询超时
var ErrStatusTimeout = errors.New("服务器状态查询超时")

// pingFunc 返回Ping得到的JSON数据和延迟（毫秒）
type pingFunc func(host string, port int) ([]byte, int, error)

// PingQuerier 通过 Server List Ping 查询服务器公开状态
type PingQuerier struct {
	host    string
	port    int
	timeout time.Duration
	ping    pingFunc
}

// NewPingQuerier 创建状态查询器
func NewPingQuerier(host string, port int, timeout time.Duration) *PingQuerier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PingQuerier{
		host:    host,
		port:    port,
		timeout: timeout,
		ping:    mcutilsPing,
	}
}

type pingResult struct {
	data    []byte
	latency int
	err     error
}

// Query 查询服务器状态，超过超时时间或 ctx 结束时返回错误
func (q *PingQuerier) Query(ctx context.Context) (*ServerStatus, error) {
	// mcutils 的Ping不接受 context，放到单独的协程里等待
	done := make(chan pingResult, 1)
	go func() {
		data, latency, err := q.ping(q.host, q.port)
		done <- pingResult{data: data, latency: latency, err: err}
	}()

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	var result pingResult
	select {
	case result = <-done:
	case <-timer.C:
		return nil, ErrStatusTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if result.err != nil {
		return nil, fmt.Errorf("Ping服务器失败: %w", result.err)
	}

	var mcStatus MinecraftStatus
	if err := sonic.Unmarshal(result.data, &mcStatus); err != nil {
		return nil, fmt.Errorf("解析服务器状态失败: %w", err)
	}

	return &ServerStatus{
		Online:      true,
		LastChecked: time.Now(),
		Players:     mcStatus.Players.Online,
		MaxPlayers:  mcStatus.Players.Max,
		Sample:      mcStatus.Players.Sample,
		Version:     mcStatus.Version.Name,
		Description: mcStatus.GetDescriptionText(),
		Latency:     result.latency,
	}, nil
}

// mcutilsPing 使用 mcutils 执行Ping并把属性序列化为JSON
func mcutilsPing(host string, port int) ([]byte, int, error) {
	properties, latency, err := ping.Ping(host, port)
	if err != nil {
		return nil, 0, err
	}
	data, err := sonic.Marshal(properties)
	if err != nil {
		return nil, 0, fmt.Errorf("序列化服务器属性失败: %w", err)
	}
	return data, int(latency), nil
}
