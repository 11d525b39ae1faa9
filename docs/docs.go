// Package docs 接口文档，由 swag init 根据控制器注释维护
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API 支持",
            "url": "http://www.newnan.city/support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/admin/command": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "通过共享的RCON会话执行任意命令，需要管理员Token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["管理"],
                "summary": "执行RCON命令",
                "parameters": [
                    {
                        "description": "命令",
                        "name": "command",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.CommandRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "执行成功", "schema": {"$ref": "#/definitions/model.Response"}},
                    "400": {"description": "请求参数错误", "schema": {"$ref": "#/definitions/model.Response"}},
                    "401": {"description": "未授权", "schema": {"$ref": "#/definitions/model.Response"}},
                    "503": {"description": "RCON暂不可用", "schema": {"$ref": "#/definitions/model.Response"}}
                }
            }
        },
        "/api/events": {
            "get": {
                "description": "建立SSE长连接接收状态与玩家快照，topic 为 status 或 players，留空接收全部",
                "tags": ["实时推送"],
                "summary": "SSE推送",
                "parameters": [{"type": "string", "description": "主题", "name": "topic", "in": "query"}],
                "responses": {"200": {"description": "SSE数据流", "schema": {"type": "string"}}}
            }
        },
        "/api/player/avatar": {
            "get": {
                "produces": ["application/json"],
                "tags": ["玩家"],
                "summary": "获取玩家头像地址",
                "parameters": [{"type": "string", "description": "玩家UUID", "name": "uuid", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "头像地址", "schema": {"$ref": "#/definitions/model.Avatar"}},
                    "400": {"description": "缺少uuid参数", "schema": {"$ref": "#/definitions/model.Response"}}
                }
            }
        },
        "/api/realtime/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["实时推送"],
                "summary": "获取实时连接统计",
                "responses": {"200": {"description": "获取成功", "schema": {"$ref": "#/definitions/model.Response"}}}
            }
        },
        "/api/server/player_info": {
            "get": {
                "description": "通过RCON获取每个在线玩家的维度、坐标与状态；RCON中断时请求会等待恢复",
                "produces": ["application/json"],
                "tags": ["服务器"],
                "summary": "获取在线玩家信息",
                "responses": {
                    "200": {"description": "玩家列表", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.PlayerInfo"}}},
                    "503": {"description": "RCON暂不可用", "schema": {"$ref": "#/definitions/model.Response"}}
                }
            }
        },
        "/api/server/status": {
            "get": {
                "description": "公开状态查询（在线人数、版本、延迟）与RCON时间查询的组合",
                "produces": ["application/json"],
                "tags": ["服务器"],
                "summary": "获取服务器状态",
                "responses": {
                    "200": {"description": "服务器状态", "schema": {"$ref": "#/definitions/model.ServerStatus"}},
                    "500": {"description": "无法获取服务器状态", "schema": {"$ref": "#/definitions/model.Response"}}
                }
            }
        },
        "/api/ws": {
            "get": {
                "description": "建立WebSocket连接接收状态与玩家快照，room 为 status 或 players，留空接收全部",
                "tags": ["实时推送"],
                "summary": "WebSocket推送",
                "parameters": [{"type": "string", "description": "房间名称", "name": "room", "in": "query"}],
                "responses": {"101": {"description": "切换为WebSocket协议", "schema": {"type": "string"}}}
            }
        },
        "/health": {
            "get": {
                "description": "不会等待RCON，只报告当前连接状态",
                "produces": ["application/json"],
                "tags": ["服务器"],
                "summary": "健康检查",
                "responses": {"200": {"description": "健康状态", "schema": {"$ref": "#/definitions/model.Health"}}}
            }
        }
    },
    "definitions": {
        "mcparse.Position": {
            "type": "object",
            "properties": {"x": {"type": "number"}, "y": {"type": "number"}, "z": {"type": "number"}}
        },
        "model.Avatar": {
            "type": "object",
            "properties": {"avatar_url": {"type": "string"}, "uuid": {"type": "string"}}
        },
        "model.CommandRequest": {
            "type": "object",
            "required": ["command"],
            "properties": {"command": {"type": "string", "maxLength": 1446}}
        },
        "model.Health": {
            "type": "object",
            "properties": {
                "rcon_connected": {"type": "boolean"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "uptime_seconds": {"type": "integer"}
            }
        },
        "model.PlayerInfo": {
            "type": "object",
            "properties": {
                "dimension": {"type": "string"},
                "name": {"type": "string"},
                "position": {"$ref": "#/definitions/mcparse.Position"},
                "raw_dimension": {"type": "string"},
                "status": {"$ref": "#/definitions/model.PlayerStatus"}
            }
        },
        "model.PlayerStatus": {
            "type": "object",
            "properties": {"food": {"type": "integer"}, "health": {"type": "number"}, "level": {"type": "integer"}}
        },
        "model.Response": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "data": {}, "message": {"type": "string"}}
        },
        "model.ServerStatus": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "game_time": {"type": "integer"},
                "game_time_formatted": {"type": "string"},
                "latency": {"type": "integer"},
                "max_players": {"type": "integer"},
                "online": {"type": "integer"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/model.StatusPlayer"}},
                "uptime_formatted": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "version": {"type": "string"},
                "world_time": {"type": "integer"},
                "world_time_formatted": {"type": "string"}
            }
        },
        "model.StatusPlayer": {
            "type": "object",
            "properties": {"avatar_url": {"type": "string"}, "name": {"type": "string"}, "uuid": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Minecraft Status API",
	Description:      "Minecraft 服务器状态与在线玩家查询 API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
