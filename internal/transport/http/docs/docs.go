// Package docs registers the OpenAPI document of the HTTP surface with swag
// and serves it.
package docs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	"mallguide-server-go/internal/platform/logging"
)

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
        "/create-store": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Validates the record, renders its display artifact and persists both.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Directory"],
                "summary": "Create a store",
                "parameters": [
                    {"description": "store record", "name": "store", "in": "body", "required": true, "schema": {"$ref": "#/definitions/directory.CreateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object"}}
                }
            }
        },
        "/delete-store/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Removes the record and its artifact. Unknown ids succeed.",
                "produces": ["application/json"],
                "tags": ["Directory"],
                "summary": "Delete a store",
                "parameters": [
                    {"type": "string", "description": "store id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object"}}
                }
            }
        },
        "/get-stores": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Directory"],
                "summary": "List stores",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/stores/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Directory"],
                "summary": "Get a store",
                "parameters": [
                    {"type": "string", "description": "store id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"type": "object"}}
                }
            }
        },
        "/artifacts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Directory"],
                "summary": "List artifacts of a category",
                "parameters": [
                    {"type": "string", "description": "category name", "name": "category", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}}
                }
            }
        },
        "/artifacts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Directory"],
                "summary": "Get a display artifact",
                "parameters": [
                    {"type": "string", "description": "store id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/aggregate.Artifact"}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Not Found", "schema": {"type": "object"}}
                }
            }
        },
        "/admin-login": {
            "post": {
                "description": "Checks the static admin credentials and issues a session token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Admin login",
                "parameters": [
                    {"description": "credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/admin.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}}
                }
            }
        },
        "/admin-logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Admin logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/push-notification": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Sends admin_response to every connected admin client.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Broadcast a notification",
                "parameters": [
                    {"description": "notification", "name": "notification", "in": "body", "required": true, "schema": {"$ref": "#/definitions/admin.PushRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "admin.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "admin.PushRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "directory.CreateRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "description": {"type": "string"},
                "phone": {"type": "string"},
                "floor": {"type": "string"},
                "mapLocation": {"type": "string"},
                "storeName": {"type": "string"},
                "storeData": {"type": "object"}
            }
        },
        "aggregate.Artifact": {
            "type": "object",
            "properties": {
                "version": {"type": "integer"},
                "storeId": {"type": "string"},
                "category": {"type": "string"},
                "bucket": {"type": "string"},
                "title": {"type": "string"},
                "template": {"type": "string"},
                "fields": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "key": {"type": "string"},
                            "label": {"type": "string"},
                            "value": {"type": "string"}
                        }
                    }
                },
                "digest": {"type": "string"}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Mall Guide API",
	Description:      "Store directory, display artifacts and admin notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

const scalarHTML = `<!DOCTYPE html>
<html lang="en">
	<head>
		<meta charset="utf-8" />
		<title>Mall Guide API Reference</title>
		<meta name="viewport" content="width=device-width, initial-scale=1" />
	</head>
	<body>
		<script
			id="api-reference"
			data-url="/openapi.json"
			data-layout="modern"
			src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"
		></script>
	</body>
</html>`

// Register mounts /openapi.json and /docs.
func Register(router *gin.RouterGroup, logger *logging.Logger) {
	router.GET("/openapi.json", func(c *gin.Context) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			logger.ErrorTag("HTTP", "failed to render OpenAPI document: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate openapi spec"})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	})

	router.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(scalarHTML))
	})
}
