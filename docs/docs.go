// Package docs registers the OpenAPI document served under /swagger/.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/signup": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Parse an invite link into sign-up form defaults",
                "parameters": [
                    {"type": "string", "name": "invitedBy", "in": "query"},
                    {"type": "string", "name": "email", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}
            }
        },
        "/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignUpRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/auth/signin": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignInRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/auth/signout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Revoke the current session",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current identity",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}
            }
        },
        "/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List the caller's events",
                "parameters": [
                    {"type": "string", "name": "title", "in": "query"},
                    {"type": "string", "name": "location", "in": "query"},
                    {"type": "string", "name": "date_from", "in": "query", "example": "2024-05-01"},
                    {"type": "string", "name": "date_to", "in": "query", "example": "2024-05-31"},
                    {"type": "string", "name": "status", "in": "query", "enum": ["upcoming", "attending", "maybe", "declined"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Create an event",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/events/stream": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/event-stream"],
                "tags": ["events"],
                "summary": "Live dashboard view over server-sent events",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events/export.ics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/calendar"],
                "tags": ["events"],
                "summary": "Export the caller's events as iCalendar",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events/{eventID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Get an event",
                "parameters": [{"type": "string", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Update an event",
                "parameters": [
                    {"type": "string", "name": "eventID", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"],
                "summary": "Delete an event",
                "parameters": [
                    {"type": "string", "name": "eventID", "in": "path", "required": true},
                    {"type": "boolean", "name": "confirm", "in": "query", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/invitations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "Invitations sent by the caller with counts",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "Invite someone by email",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InviteRequest"}}],
                "responses": {
                    "200": {"description": "Already invited", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/invitations/stream": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/event-stream"],
                "tags": ["invitations"],
                "summary": "Live invitation list over server-sent events",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/summarize": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["summarize"],
                "summary": "Condense free text",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SummarizeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/APIResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness and database reachability",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/APIError"}
            }
        },
        "SignUpRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "invited_by": {"type": "string"}
            }
        },
        "SignInRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "date": {"type": "string", "example": "2024-05-01"},
                "time": {"type": "string", "example": "09:00"},
                "location": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["upcoming", "attending", "maybe", "declined"]}
            }
        },
        "UpdateEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "location": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "InviteRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "send_email": {"type": "boolean"}
            }
        },
        "SummarizeRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
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
	Title:            "Event Scheduler API",
	Description:      "Personal event scheduling with invitations and live updates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
