package mccontrol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xrjr/mcutils/pkg/rcon"

	"city.newnan/mc-status/internal/logger"
)

var (
	// ErrAuthFailed RCON密码错误
	ErrAuthFailed = errors.New("RCON认证失败: 密码错误")
	// ErrManagerClosed 管理器已关闭
	ErrManagerClosed = errors.New("RCON管理器已关闭")
)

// 默认重连参数
const (
	DefaultRetryBase = 10 * time.Second
	DefaultRetryMax  = 300 * time.Second
)

// RconConn 一个已认证的RCON连接，报文编解码由底层库负责
type RconConn interface {
	Command(cmd string) (string, error)
	Close() error
}

// Dialer 建立并认证一个RCON连接
type Dialer func(host string, port int, password string) (RconConn, error)

// RconOptions RCON管理器配置
type RconOptions struct {
	Host      string
	Port      int
	Password  string
	RetryBase time.Duration // 退避基准时间，同时也是命令失败后的冷却时间
	RetryMax  time.Duration // 退避上限
	Dialer    Dialer        // 为空时使用 mcutils
}

// RconManager 维护唯一的RCON会话
// 连接失败时按指数退避无限重试，命令失败时丢弃会话并重新执行，
// 所有命令串行执行，保证请求与响应一一对应
type RconManager struct {
	host      string
	port      int
	password  string
	retryBase time.Duration
	retryMax  time.Duration
	dial      Dialer
	sleep     func(ctx context.Context, d time.Duration) error

	// 同一时刻只允许一个操作使用连接
	sem chan struct{}

	// 会话状态，单独加锁以便健康检查不被长时间重连阻塞
	stateMutex  sync.RWMutex
	conn        RconConn
	connectedAt time.Time
	attempt     int

	closed    chan struct{}
	closeOnce sync.Once
}

// NewRconManager 创建RCON管理器，不会立即连接
func NewRconManager(opts RconOptions) *RconManager {
	if opts.RetryBase <= 0 {
		opts.RetryBase = DefaultRetryBase
	}
	if opts.RetryMax < opts.RetryBase {
		opts.RetryMax = DefaultRetryMax
		if opts.RetryMax < opts.RetryBase {
			opts.RetryMax = opts.RetryBase
		}
	}
	if opts.Dialer == nil {
		opts.Dialer = dialMcutils
	}

	return &RconManager{
		host:      opts.Host,
		port:      opts.Port,
		password:  opts.Password,
		retryBase: opts.RetryBase,
		retryMax:  opts.RetryMax,
		dial:      opts.Dialer,
		sleep:     sleepContext,
		sem:       make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
}

// NextBackoff 计算第 attempt 次失败后的等待时间: min(base * 2^attempt, max)
func (m *RconManager) NextBackoff(attempt int) time.Duration {
	delay := m.retryBase
	for i := 0; i < attempt && delay < m.retryMax; i++ {
		delay *= 2
	}
	if delay > m.retryMax {
		delay = m.retryMax
	}
	return delay
}

// Connect 连接并认证，失败时按退避时间无限重试
// 只有连接成功、ctx 结束或管理器关闭时才返回
func (m *RconManager) Connect(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	_, err := m.connectLocked(ctx)
	return err
}

// Execute 执行命令并返回原始响应
// 传输层出错时丢弃会话，冷却 retryBase 后整体重试，不会把传输错误返回给调用方；
// 只有 ctx 结束或管理器关闭时才返回错误
func (m *RconManager) Execute(ctx context.Context, command string) (string, error) {
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	defer m.release()

	for {
		conn, err := m.connectLocked(ctx)
		if err != nil {
			return "", err
		}

		response, err := conn.Command(command)
		if err == nil {
			return response, nil
		}

		logger.Warnf("RCON命令执行失败: %s - %v，%s 后重连重试", command, err, m.retryBase)
		m.dropConn(conn)

		if err := m.wait(ctx, m.retryBase); err != nil {
			return "", err
		}
	}
}

// Disconnect 断开当前会话，关闭错误只记录日志；未连接时调用也是安全的
// 断开后再次执行命令会重新建立连接
func (m *RconManager) Disconnect() {
	m.stateMutex.Lock()
	conn := m.conn
	m.conn = nil
	m.connectedAt = time.Time{}
	m.stateMutex.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		logger.Warnf("关闭RCON连接失败: %v", err)
	}
	logger.Infof("RCON连接已断开")
}

// Close 停止所有重试循环并断开连接，之后的操作返回 ErrManagerClosed
func (m *RconManager) Close() {
	m.closeOnce.Do(func() {
		close(m.closed)
	})
	m.Disconnect()
}

// IsConnected 检查是否持有已认证的会话
func (m *RconManager) IsConnected() bool {
	m.stateMutex.RLock()
	defer m.stateMutex.RUnlock()
	return m.conn != nil
}

// ConnectedSince 返回当前会话的建立时间，未连接时返回零值
func (m *RconManager) ConnectedSince() time.Time {
	m.stateMutex.RLock()
	defer m.stateMutex.RUnlock()
	return m.connectedAt
}

// Attempt 返回当前连续连接失败的次数
func (m *RconManager) Attempt() int {
	m.stateMutex.RLock()
	defer m.stateMutex.RUnlock()
	return m.attempt
}

// connectLocked 调用方必须持有 sem
func (m *RconManager) connectLocked(ctx context.Context) (RconConn, error) {
	for {
		select {
		case <-m.closed:
			return nil, ErrManagerClosed
		default:
		}

		m.stateMutex.RLock()
		conn := m.conn
		attempt := m.attempt
		m.stateMutex.RUnlock()
		if conn != nil {
			return conn, nil
		}

		conn, err := m.dial(m.host, m.port, m.password)
		if err == nil {
			m.stateMutex.Lock()
			m.conn = conn
			m.connectedAt = time.Now()
			m.attempt = 0
			m.stateMutex.Unlock()
			logger.Infof("成功连接到RCON %s:%d", m.host, m.port)
			return conn, nil
		}

		delay := m.NextBackoff(attempt)
		logger.Warnf("RCON连接失败(第%d次): %v，%s 后重试", attempt+1, err, delay)

		m.stateMutex.Lock()
		m.attempt = attempt + 1
		m.stateMutex.Unlock()

		if err := m.wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// dropConn 丢弃出错的会话，若会话已被替换则不做处理
func (m *RconManager) dropConn(conn RconConn) {
	m.stateMutex.Lock()
	if m.conn != conn {
		m.stateMutex.Unlock()
		return
	}
	m.conn = nil
	m.connectedAt = time.Time{}
	m.stateMutex.Unlock()

	if err := conn.Close(); err != nil {
		logger.Debugf("关闭失效的RCON连接失败: %v", err)
	}
}

func (m *RconManager) acquire(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closed:
		return ErrManagerClosed
	}
}

func (m *RconManager) release() {
	<-m.sem
}

// wait 在重试之间等待，ctx 结束或管理器关闭时提前返回
func (m *RconManager) wait(ctx context.Context, d time.Duration) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-m.closed:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	if err := m.sleep(waitCtx, d); err != nil {
		select {
		case <-m.closed:
			return ErrManagerClosed
		default:
			return err
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mcutilsConn 基于 mcutils 的RCON连接
type mcutilsConn struct {
	client *rcon.RCONClient
}

func (c *mcutilsConn) Command(cmd string) (string, error) {
	return c.client.Command(cmd)
}

func (c *mcutilsConn) Close() error {
	c.client.Disconnect()
	return nil
}

// dialMcutils 使用 mcutils 建立连接并认证
func dialMcutils(host string, port int, password string) (RconConn, error) {
	client := rcon.NewClient(host, port)

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("连接RCON失败: %w", err)
	}

	ok, err := client.Authenticate(password)
	if err != nil {
		client.Disconnect()
		return nil, fmt.Errorf("RCON认证错误: %w", err)
	}
	if !ok {
		client.Disconnect()
		return nil, ErrAuthFailed
	}

	return &mcutilsConn{client: client}, nil
}
