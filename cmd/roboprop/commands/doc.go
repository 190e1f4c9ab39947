// Package commands defines the roboprop CLI.
//
// Commands
//
//   - convert      Export one .blend file into a model directory
//   - build        Export every model described by roboprop.yaml files
//   - inspect      Check an exported model directory
//   - upload       Publish a model directory to the file server
//   - list         List models published on the file server
//   - config init  Write the default configuration
//   - config show  Print the effective configuration
//
// # Implementation
//
// The root command loads the configuration (defaults, config file,
// environment, then flags) and initializes the global logger before any
// subcommand runs. Results go to stdout, logs to stderr.
package commands
