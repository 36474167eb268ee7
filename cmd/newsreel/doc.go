// Command newsreel is the CLI entry point. Run without arguments it executes
// the whole pipeline once; subcommands serve the admin dashboard, inspect run
// history, manage the saved topic list, and handle configuration files.
package main
