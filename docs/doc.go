// Package docs provides generated OpenAPI documentation.
//
// Intake API
//
//	@title			Intake API
//	@version		1.0
//	@description	Patient complaint extraction API for turning free-text complaints into structured records.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/intake
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/intake/serve.go -o . --parseDependency --parseInternal
