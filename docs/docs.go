// Package docs registers the OpenAPI description served at /docs.
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
        "/ai/voice-command": {
            "post": {
                "tags": ["ai"],
                "summary": "Interpret a spoken command and create the records it describes",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {"$ref": "#/definitions/VoiceCommandRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Confirmation and interpreted actions", "schema": {"$ref": "#/definitions/VoiceCommandResponse"}},
                    "400": {"description": "Empty message", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/ai/smart-task-creation": {
            "post": {
                "tags": ["ai"],
                "summary": "Suggest tasks from a spoken request without saving them",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SmartTaskRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Suggested tasks", "schema": {"$ref": "#/definitions/SmartTaskResponse"}},
                    "400": {"description": "Empty voice input", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/family-members": {
            "get": {"tags": ["family-members"], "summary": "List family members", "responses": {"200": {"description": "Members"}}},
            "post": {"tags": ["family-members"], "summary": "Create a family member", "responses": {"201": {"description": "Created member"}, "400": {"description": "Invalid input"}}}
        },
        "/family-members/{id}/verify-pin": {
            "post": {"tags": ["family-members"], "summary": "Check a member PIN", "responses": {"200": {"description": "PIN verified"}, "401": {"description": "Wrong PIN"}, "409": {"description": "No PIN set"}}}
        },
        "/tasks": {
            "get": {"tags": ["tasks"], "summary": "List tasks", "responses": {"200": {"description": "Tasks"}}},
            "post": {"tags": ["tasks"], "summary": "Create a task", "responses": {"201": {"description": "Created task"}}}
        },
        "/tasks/{id}/complete": {
            "post": {"tags": ["tasks"], "summary": "Mark a task completed", "responses": {"200": {"description": "Completed task"}, "404": {"description": "Unknown task"}}}
        },
        "/events": {
            "get": {"tags": ["events"], "summary": "List events", "responses": {"200": {"description": "Events ordered by start time"}}},
            "post": {"tags": ["events"], "summary": "Create an event", "responses": {"201": {"description": "Created event"}}}
        },
        "/deadlines": {
            "get": {"tags": ["deadlines"], "summary": "List deadlines", "responses": {"200": {"description": "Deadlines ordered by due date"}}},
            "post": {"tags": ["deadlines"], "summary": "Create a deadline", "responses": {"201": {"description": "Created deadline"}}}
        },
        "/voice-notes": {
            "get": {"tags": ["voice-notes"], "summary": "List voice notes", "responses": {"200": {"description": "Voice notes, newest first"}}},
            "post": {"tags": ["voice-notes"], "summary": "Capture a voice note", "responses": {"201": {"description": "Created voice note"}}}
        },
        "/notifications": {
            "get": {"tags": ["notifications"], "summary": "List notifications", "responses": {"200": {"description": "Notifications"}}},
            "post": {"tags": ["notifications"], "summary": "Schedule a notification", "responses": {"201": {"description": "Created notification"}}}
        }
    },
    "definitions": {
        "VoiceCommandRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string", "example": "Schedule dentist appointment for Emma tomorrow at 3pm"}
            }
        },
        "Action": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["create_task", "create_event", "create_reminder"]},
                "data": {"type": "object"}
            }
        },
        "VoiceCommandResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "actions": {"type": "array", "items": {"$ref": "#/definitions/Action"}}
            }
        },
        "SmartTaskRequest": {
            "type": "object",
            "required": ["voiceInput"],
            "properties": {
                "voiceInput": {"type": "string", "example": "Tom needs to mow the lawn this weekend"},
                "familyMembers": {"type": "array", "items": {"type": "object"}}
            }
        },
        "SmartTaskResponse": {
            "type": "object",
            "properties": {
                "tasks": {"type": "array", "items": {"type": "object"}},
                "interpretation": {"type": "string"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "FamilyHub API",
	Description:      "Family calendar, tasks and voice command API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
