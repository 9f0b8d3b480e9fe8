// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the poll-mode readiness-notification backend the
// TCP transport engine registers with: a level-triggered epoll implementation
// on Linux and an explicit unsupported stub elsewhere.
package reactor
