/*
Package mccontrol 提供了与Minecraft服务器交互的功能。

主要特性:

  - RCON会话管理：维护唯一的已认证连接，断线后按指数退避无限重连，命令串行执行
  - 服务器状态查询：通过 Server List Ping 获取在线人数、版本、延迟等信息

此包依赖于github.com/xrjr/mcutils来实现与Minecraft服务器的通信协议。

基本用法:

	manager := mccontrol.NewRconManager(mccontrol.RconOptions{
		Host:     "127.0.0.1",
		Port:     25575,
		Password: "minecraft-password",
	})
	defer manager.Close()

	// 阻塞直到RCON可用；需要限时的调用方自行给 ctx 设置超时
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	response, err := manager.Execute(ctx, "list")

	// 查询公开状态
	querier := mccontrol.NewPingQuerier("127.0.0.1", 25565, 5*time.Second)
	status, err := querier.Query(ctx)
*/
package mccontrol
