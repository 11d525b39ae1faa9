package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"city.newnan/mc-status/pkg/mccontrol"
)

// CLI颜色设置
var (
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	promptColor  = color.New(color.FgCyan, color.Bold)
)

// Console 逐行读取命令并通过RCON执行
type Console struct {
	rcon           mccontrol.CommandExecutor
	status         mccontrol.StatusQuerier
	out            io.Writer
	enableColor    bool
	commandTimeout time.Duration
}

// NewConsole 创建控制台
func NewConsole(rcon mccontrol.CommandExecutor, status mccontrol.StatusQuerier, out io.Writer, enableColor bool, timeout time.Duration) *Console {
	return &Console{
		rcon:           rcon,
		status:         status,
		out:            out,
		enableColor:    enableColor,
		commandTimeout: timeout,
	}
}

func (c *Console) printf(col *color.Color, format string, args ...interface{}) {
	if c.enableColor && col != nil {
		col.Fprintf(c.out, format, args...)
		return
	}
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) printError(format string, args ...interface{}) {
	c.printf(errorColor, "[ERROR] "+format+"\n", args...)
}

func (c *Console) prompt() {
	c.printf(promptColor, "> ")
}

// Run 读取输入直到 EOF、/local exit 或 ctx 结束
func (c *Console) Run(ctx context.Context, in io.Reader) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				return
			}
			command := strings.TrimSpace(line)
			if command != "" && !c.handle(ctx, command) {
				return
			}
			c.prompt()
		}
	}
}

// handle 处理一行输入，返回 false 表示退出
func (c *Console) handle(ctx context.Context, command string) bool {
	if local, ok := strings.CutPrefix(command, "/local"); ok {
		return c.handleLocal(ctx, strings.TrimSpace(local))
	}
	c.execute(ctx, strings.TrimPrefix(command, "/"))
	return true
}

func (c *Console) execute(ctx context.Context, command string) {
	cmdCtx, cancel := context.WithTimeout(ctx, c.commandTimeout)
	defer cancel()

	response, err := c.rcon.Execute(cmdCtx, command)
	if err != nil {
		c.printError("执行命令失败: %v", err)
		return
	}
	if response == "" {
		c.printf(successColor, "命令已执行\n")
		return
	}
	for _, line := range strings.Split(strings.TrimRight(response, "\n"), "\n") {
		fmt.Fprintln(c.out, parseMinecraftFormat(line, LogLevelInfo, c.enableColor))
	}
}

// handleLocal 处理本地命令
func (c *Console) handleLocal(ctx context.Context, command string) bool {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		parts = []string{"help"}
	}

	switch parts[0] {
	case "status":
		statusCtx, cancel := context.WithTimeout(ctx, c.commandTimeout)
		defer cancel()
		status, err := c.status.Query(statusCtx)
		if err != nil {
			c.printError("检查服务器状态失败: %v", err)
			return true
		}
		c.printf(successColor, "服务器在线\n")
		fmt.Fprintf(c.out, "版本: %s\n", status.Version)
		fmt.Fprintf(c.out, "玩家: %d/%d\n", status.Players, status.MaxPlayers)
		fmt.Fprintf(c.out, "描述: %s\n", parseMinecraftFormat(status.Description, LogLevelInfo, c.enableColor))
		fmt.Fprintf(c.out, "延迟: %d ms\n", status.Latency)
		fmt.Fprintf(c.out, "RCON: %s\n", map[bool]string{true: "已连接", false: "未连接"}[c.rcon.IsConnected()])

	case "help":
		fmt.Fprintln(c.out, "可用的本地命令:")
		fmt.Fprintln(c.out, "  /local status  - 显示服务器状态信息")
		fmt.Fprintln(c.out, "  /local help    - 显示此帮助信息")
		fmt.Fprintln(c.out, "  /local exit    - 退出程序")
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "所有其他输入将作为RCON命令发送到Minecraft服务器")

	case "exit":
		return false

	default:
		c.printError("未知的本地命令: %s", parts[0])
		fmt.Fprintln(c.out, "输入 '/local help' 获取可用命令列表")
	}
	return true
}
