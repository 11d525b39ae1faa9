/*
Package mcparse 解析Minecraft服务器通过RCON返回的半结构化文本。

包含以下解析器:

  - ParseEntity：解析 "data get entity <玩家>" 的输出（坐标、维度、生命值、饱食度、等级）
  - ParsePlayerList：解析 "list" 的输出，得到去重后的在线玩家名
  - ParseTimeQuery：解析 "time query daytime|gametime" 的输出
  - DimensionResolver：从 dimension_map.json 读取维度显示名称并缓存

解析器对格式错误保持宽容：任何一个字段无法识别只会让该字段缺失，并记录警告日志。

基本用法:

	dims := mcparse.NewDimensionResolver("dimension_map.json")
	record := mcparse.ParseEntity(response, dims)
	if record.Position != nil {
		fmt.Println(record.Position.X, record.Position.Y, record.Position.Z)
	}
*/
package mcparse
