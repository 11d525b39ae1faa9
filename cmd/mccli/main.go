// mccli 是连接Minecraft服务器RCON的交互式控制台
//
// 断线后按与API服务相同的退避策略自动重连；-issue-token 用于签发管理接口的Token
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"city.newnan/mc-status/internal/config"
	"city.newnan/mc-status/internal/middleware"
	"city.newnan/mc-status/pkg/mccontrol"
)

// CLI选项
type cliOptions struct {
	host         string
	rconPort     int
	rconPassword string
	gamePort     int

	retryBase      time.Duration
	retryMax       time.Duration
	commandTimeout time.Duration
	exec           string
	enableColor    bool

	issueToken string
	jwtSecret  string
	jwtIssuer  string
	jwtExpire  time.Duration
}

func main() {
	options := parseFlags()

	if options.issueToken != "" {
		os.Exit(issueToken(options))
	}

	if options.rconPassword == "" {
		password, err := readPassword()
		if err != nil {
			errorColor.Fprintf(os.Stderr, "读取RCON密码失败: %v\n", err)
			os.Exit(1)
		}
		options.rconPassword = password
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	manager := mccontrol.NewRconManager(mccontrol.RconOptions{
		Host:      options.host,
		Port:      options.rconPort,
		Password:  options.rconPassword,
		RetryBase: options.retryBase,
		RetryMax:  options.retryMax,
	})
	defer manager.Close()

	querier := mccontrol.NewPingQuerier(options.host, options.gamePort, 5*time.Second)
	console := NewConsole(manager, querier, os.Stdout, options.enableColor, options.commandTimeout)

	// 单条命令模式
	if options.exec != "" {
		console.execute(ctx, options.exec)
		return
	}

	if options.enableColor {
		successColor.Printf("正在连接 %s:%d ...\n", options.host, options.rconPort)
	} else {
		fmt.Printf("正在连接 %s:%d ...\n", options.host, options.rconPort)
	}
	if err := manager.Connect(ctx); err != nil {
		errorColor.Fprintf(os.Stderr, "连接中止: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("已连接，输入 '/local help' 查看本地命令")

	console.Run(ctx, os.Stdin)
}

// parseFlags 解析命令行参数
func parseFlags() cliOptions {
	options := cliOptions{}

	// Minecraft服务器配置
	flag.StringVar(&options.host, "host", config.GetEnv("RCON_HOST", "127.0.0.1"), "Minecraft 服务器地址")
	flag.IntVar(&options.rconPort, "rcon-port", config.GetEnvInt("RCON_PORT", 25575), "RCON 端口")
	flag.StringVar(&options.rconPassword, "rcon-password", config.GetEnv("RCON_PASSWORD", ""), "RCON 密码 (为空时交互输入)")
	flag.IntVar(&options.gamePort, "game-port", 25565, "Minecraft 游戏端口，用于 /local status")

	// CLI配置
	flag.DurationVar(&options.retryBase, "retry-base", mccontrol.DefaultRetryBase, "重连退避基准时间")
	flag.DurationVar(&options.retryMax, "retry-max", mccontrol.DefaultRetryMax, "重连退避上限")
	flag.DurationVar(&options.commandTimeout, "timeout", 30*time.Second, "单条命令的最长等待时间")
	flag.StringVar(&options.exec, "c", "", "执行一条命令后退出")
	flag.BoolVar(&options.enableColor, "color", isatty.IsTerminal(os.Stdout.Fd()), "启用彩色输出")

	// 管理接口Token
	flag.StringVar(&options.issueToken, "issue-token", "", "为指定名称签发管理接口Token后退出")
	flag.StringVar(&options.jwtSecret, "jwt-secret", config.GetEnv("JWT_SECRET", ""), "签发Token使用的密钥")
	flag.StringVar(&options.jwtIssuer, "jwt-issuer", config.GetEnv("JWT_ISSUER", "mc-status"), "Token签发者")
	flag.DurationVar(&options.jwtExpire, "jwt-expire", 24*time.Hour, "Token有效期")

	flag.Parse()
	return options
}

// issueToken 签发管理员Token并输出到标准输出
func issueToken(options cliOptions) int {
	cfg := config.Default()
	cfg.JWTSecret = options.jwtSecret
	cfg.JWTIssuer = options.jwtIssuer
	cfg.JWTExpireTime = options.jwtExpire

	token, err := middleware.GenerateToken(options.issueToken, cfg)
	if err != nil {
		errorColor.Fprintf(os.Stderr, "签发Token失败: %v\n", err)
		return 1
	}
	fmt.Println(token)
	return 0
}

// readPassword 在终端中读取密码，不回显
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("标准输入不是终端，请使用 -rcon-password 或 RCON_PASSWORD")
	}
	fmt.Print("RCON 密码: ")
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(password) == 0 {
		return "", fmt.Errorf("密码不能为空")
	}
	return string(password), nil
}

// setupSignalHandler 设置信号处理
func setupSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}
