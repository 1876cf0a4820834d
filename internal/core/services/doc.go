// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services never touch a DOM or a socket directly; pages, browsers and
// stores arrive through the driven ports.
package services
