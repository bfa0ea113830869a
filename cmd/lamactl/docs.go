package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           lamactl API
// @version         1.0
// @description     HTTP proxy API in front of a local Ollama daemon: prompt completion, model listing, health.
//
// @contact.name   lamactl maintainers
// @contact.url    https://github.com/your-org/lamactl
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
