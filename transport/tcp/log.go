// File: transport/tcp/log.go
// Author: momentics <momentics@gmail.com>

package tcp

import "github.com/sirupsen/logrus"

// log carries the package field on every engine message. Transient socket
// errors are warnings; only hard errors reach the close handler.
var log = logrus.WithField("module", "tcp")
