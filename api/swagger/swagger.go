package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Annotator API",
        "description": "HTML email template annotation service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Templates", "description": "Template upload and preview"},
        {"name": "Annotations", "description": "Annotation editing and ordering"},
        {"name": "Exports", "description": "PDF bundle generation"},
        {"name": "Session", "description": "Session lifecycle"}
    ],
    "paths": {
        "/upload": {
            "post": {
                "tags": ["Templates"],
                "summary": "Upload HTML templates",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "files", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large"},
                    "415": {"description": "Unsupported file type"}
                }
            }
        },
        "/files": {
            "get": {
                "tags": ["Templates"],
                "summary": "List uploaded templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Annotated template preview",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File not found"}
                }
            }
        },
        "/files/{id}/annotations": {
            "post": {
                "tags": ["Annotations"],
                "summary": "Add an annotation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddAnnotationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Annotations"],
                "summary": "Replace the annotation collection",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceAnnotationsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Order mismatch"}
                }
            }
        },
        "/files/{id}/annotations/selection": {
            "post": {
                "tags": ["Annotations"],
                "summary": "Annotate selected text",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSelectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/{id}/annotations/order": {
            "put": {
                "tags": ["Annotations"],
                "summary": "Reorder annotations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReorderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Order mismatch"}
                }
            }
        },
        "/files/{id}/annotations/{annotationId}": {
            "patch": {
                "tags": ["Annotations"],
                "summary": "Update annotation metadata",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "annotationId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAnnotationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Annotation not found"}
                }
            },
            "delete": {
                "tags": ["Annotations"],
                "summary": "Delete an annotation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "annotationId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export selected templates as a PDF bundle",
                "produces": ["application/zip"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Zip archive"}
                }
            }
        },
        "/exports/jobs": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an asynchronous export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/jobs/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "produces": ["application/zip"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Zip archive"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/session/clear": {
            "post": {
                "tags": ["Session"],
                "summary": "Discard all uploaded templates and annotations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AddAnnotationRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["form_field", "hyperlink", "template_variable", "custom_text"]},
                "element_type": {"type": "string"},
                "locator": {"type": "string"},
                "label": {"type": "string"},
                "url": {"type": "string"},
                "name": {"type": "string"},
                "variable_name": {"type": "string"},
                "custom_color": {"type": "string"},
                "comments": {"type": "string"}
            },
            "required": ["type", "label"]
        },
        "AddSelectionRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "label": {"type": "string"},
                "custom_color": {"type": "string"},
                "comments": {"type": "string"}
            },
            "required": ["text"]
        },
        "UpdateAnnotationRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "url": {"type": "string"},
                "name": {"type": "string"},
                "comments": {"type": "string"},
                "custom_color": {"type": "string"}
            }
        },
        "ReorderRequest": {
            "type": "object",
            "properties": {
                "annotation_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["annotation_ids"]
        },
        "ReplaceAnnotationsRequest": {
            "type": "object",
            "properties": {
                "annotations": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Annotation"}
                }
            },
            "required": ["annotations"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "selected_files": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["selected_files"]
        },
        "Annotation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "element_type": {"type": "string"},
                "locator": {"type": "string"},
                "label": {"type": "string"},
                "url": {"type": "string"},
                "name": {"type": "string"},
                "variable_name": {"type": "string"},
                "custom_color": {"type": "string"},
                "comments": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
