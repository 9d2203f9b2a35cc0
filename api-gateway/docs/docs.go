// Package docs registers the gateway's OpenAPI document with swag.
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
        "/uploads": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Issues a signed URL allowing one PUT of the declared content type for 15 minutes.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["uploads"],
                "summary": "Request an upload URL",
                "parameters": [
                    {
                        "description": "File to upload",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/pipeline.UploadRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.UploadTicketResponse"}},
                    "400": {"description": "Missing fileName or contentType", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "500": {"description": "Signing failed", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/videos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns up to 50 videos, newest first.",
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "List videos",
                "parameters": [
                    {"type": "boolean", "description": "Only the caller's videos", "name": "mine", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.VideoListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "401": {"description": "mine=true without a token", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/videos/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns one video record. Private videos are only visible to their owner.",
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "Get a video",
                "parameters": [
                    {"type": "string", "description": "Video ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.VideoResponse"}},
                    "404": {"description": "Video not found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/users/me": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create or refresh the caller's profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "pipeline.UploadMetadata": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "visibility": {"type": "string", "enum": ["public", "unlisted", "private"]},
                "tags": {"type": "array", "items": {"type": "string"}},
                "originalFileName": {"type": "string"},
                "fileSize": {"type": "integer"}
            }
        },
        "pipeline.UploadRequest": {
            "type": "object",
            "required": ["contentType", "fileName"],
            "properties": {
                "fileName": {"type": "string"},
                "contentType": {"type": "string"},
                "metadata": {"$ref": "#/definitions/pipeline.UploadMetadata"}
            }
        },
        "pipeline.UploadTicket": {
            "type": "object",
            "properties": {
                "uploadUrl": {"type": "string"},
                "filePath": {"type": "string"},
                "method": {"type": "string"},
                "headers": {"type": "object", "additionalProperties": {"type": "string"}},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "expiresAt": {"type": "string"}
            }
        },
        "handlers.UploadTicketResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "data": {"$ref": "#/definitions/pipeline.UploadTicket"}
            }
        },
        "models.RenditionRef": {
            "type": "object",
            "properties": {
                "profileName": {"type": "string"},
                "locationUrl": {"type": "string"},
                "outputFileName": {"type": "string"}
            }
        },
        "models.VideoRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ownerId": {"type": "string"},
                "status": {"type": "string", "enum": ["processing", "processed", "error"]},
                "sourceObjectPath": {"type": "string"},
                "fileName": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "visibility": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "ownerName": {"type": "string"},
                "ownerAvatar": {"type": "string"},
                "originalFileName": {"type": "string"},
                "fileSize": {"type": "integer"},
                "views": {"type": "integer"},
                "likes": {"type": "integer"},
                "thumbnailUrl": {"type": "string"},
                "duration": {"type": "number"},
                "outputs": {"type": "array", "items": {"$ref": "#/definitions/models.RenditionRef"}},
                "errorMessage": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "processedAt": {"type": "string"}
            }
        },
        "handlers.VideoListResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.VideoRecord"}}
            }
        },
        "handlers.VideoResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "data": {"$ref": "#/definitions/models.VideoRecord"}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "error"},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "StreamShare API",
	Description:      "Upload intake and video catalogue for StreamShare.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
