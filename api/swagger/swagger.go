package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StudyPlan API",
        "description": "Learning resource recommendation and weekly study schedule optimization",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Accounts and tokens"},
        {"name": "Goals", "description": "Learning goal management"},
        {"name": "Resources", "description": "Learning resource catalog"},
        {"name": "Availability", "description": "Weekly time availability"},
        {"name": "Schedules", "description": "Schedule generation and export"},
        {"name": "Recommendations", "description": "Topic based resource recommendations"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new account",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive tokens",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/goals": {
            "get": {
                "tags": ["Goals"],
                "summary": "List learning goals",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Goals"],
                "summary": "Create a learning goal",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/resources": {
            "get": {
                "tags": ["Resources"],
                "summary": "List learning resources",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Resources"],
                "summary": "Create a learning resource",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List weekly availability",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Replace the full weekly availability",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedules/generate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate a weekly study schedule",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedules/feasibility": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Check whether goals fit availability",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedules/video": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate a chunked schedule for one long video",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/recommendations": {
            "get": {
                "tags": ["Recommendations"],
                "summary": "Recommend resources for a topic",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
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
