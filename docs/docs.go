// Package docs 注册 /swagger 下提供的 OpenAPI 描述
// 修改 handler 注解后用 `swag init -g cmd/server/main.go` 重新生成
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "首页帖子列表",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/group/{slug}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "分组帖子列表",
                "parameters": [
                    {"type": "string", "description": "分组 slug", "name": "slug", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/profile/{username}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "作者帖子列表",
                "parameters": [
                    {"type": "string", "description": "作者用户名", "name": "username", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/{post_id}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "帖子详情",
                "parameters": [
                    {"type": "integer", "description": "帖子 id", "name": "post_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/create/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "发帖",
                "responses": {"200": {"description": "表单", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "发帖",
                "parameters": [
                    {"type": "string", "description": "帖子正文", "name": "text", "in": "formData", "required": true},
                    {"type": "string", "description": "分组 id", "name": "group", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "带错误信息的表单", "schema": {"$ref": "#/definitions/response.Response"}},
                    "302": {"description": "跳转到作者主页"}
                }
            }
        },
        "/posts/{post_id}/edit/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "编辑帖子",
                "parameters": [
                    {"type": "integer", "description": "帖子 id", "name": "post_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "带 is_edit 的表单", "schema": {"$ref": "#/definitions/response.Response"}},
                    "302": {"description": "跳转到帖子详情"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["帖子"],
                "summary": "编辑帖子",
                "parameters": [
                    {"type": "integer", "description": "帖子 id", "name": "post_id", "in": "path", "required": true},
                    {"type": "string", "description": "帖子正文", "name": "text", "in": "formData", "required": true},
                    {"type": "string", "description": "分组 id", "name": "group", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "带错误信息的表单", "schema": {"$ref": "#/definitions/response.Response"}},
                    "302": {"description": "跳转到帖子详情"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/signup/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "用户注册",
                "parameters": [
                    {"description": "注册信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.signupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/login/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "登录提示",
                "parameters": [
                    {"type": "string", "description": "登录后返回的路径", "name": "next", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "用户登录",
                "parameters": [
                    {"description": "登录凭据", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "302": {"description": "跳转到 next"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/logout/": {
            "post": {
                "tags": ["认证"],
                "summary": "退出登录",
                "responses": {"302": {"description": "跳转到首页"}}
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["运维"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "handler.loginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "next": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.signupRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "yatube API",
	Description:      "博客帖子：可选分组，分页列表，仅作者可编辑",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
