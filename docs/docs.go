// Package docs registers the Swagger document for the task API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Server is healthy",
                        "schema": {"$ref": "#/definitions/HealthResponse"}
                    }
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks",
                "description": "List tasks newest first, optionally filtered by status. Unknown status values are ignored.",
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "query",
                        "name": "status",
                        "type": "string",
                        "enum": ["pending", "in-progress", "done"],
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Tasks",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}
                    }
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "task",
                        "required": true,
                        "schema": {"$ref": "#/definitions/TaskRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ValidationErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "parameters": [
                {"in": "path", "name": "id", "type": "string", "required": true}
            ],
            "get": {
                "tags": ["Tasks"],
                "summary": "Get a task",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Task", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "tags": ["Tasks"],
                "summary": "Replace a task",
                "description": "Omitted optional fields are reset to their defaults.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "task", "required": true, "schema": {"$ref": "#/definitions/TaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ValidationErrorResponse"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["Tasks"],
                "summary": "Update part of a task",
                "description": "Only the fields present in the body change.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "task", "required": true, "schema": {"$ref": "#/definitions/TaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ValidationErrorResponse"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Tasks"],
                "summary": "Delete a task",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "The removed task", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "in-progress", "done"]},
                "dueDate": {"type": "string", "x-nullable": true},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "TaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "example": "Buy milk"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "in-progress", "done"]},
                "dueDate": {"type": "string", "x-nullable": true, "example": "2024-06-01"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "ValidationErrorResponse": {
            "type": "object",
            "properties": {"errors": {"type": "array", "items": {"type": "string"}}}
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Task Tracker API",
	Description:      "In-memory task tracking API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
