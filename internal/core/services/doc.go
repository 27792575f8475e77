// Package services implements the driving port interfaces.
// Services hold the application logic and orchestrate calls to driven
// ports (adapters); they never touch the filesystem or database directly.
package services
